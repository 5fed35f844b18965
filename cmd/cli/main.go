package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"text/tabwriter"
	"time"

	"github.com/yourorg/rentalhub/internal/domain"
	"github.com/yourorg/rentalhub/internal/repository"
	"github.com/yourorg/rentalhub/internal/store"
	"github.com/yourorg/rentalhub/pkg/config"
	"github.com/yourorg/rentalhub/pkg/database"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "auth":
		handleAuth(args)
	case "rentals":
		handleRentals(args)
	case "bootstrap-admin":
		bootstrapAdmin(args)
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func handleAuth(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: rentalhub auth <register|login|logout|who>")
		return
	}

	subCmd := args[0]
	switch subCmd {
	case "register":
		registerUser(args[1:])
	case "login":
		loginUser(args[1:])
	case "logout":
		logoutUser()
	case "who":
		whoAmI()
	default:
		fmt.Printf("unknown auth command: %s\n", subCmd)
	}
}

func handleRentals(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: rentalhub rentals <list|mine>")
		return
	}

	subCmd := args[0]
	switch subCmd {
	case "list":
		listRentals(args[1:])
	case "mine":
		listMyRentals(args[1:])
	default:
		fmt.Printf("unknown rentals command: %s\n", subCmd)
	}
}

// Auth commands
func registerUser(args []string) {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	email := fs.String("email", "", "user email")
	password := fs.String("password", "", "password")
	name := fs.String("name", "", "full name")
	role := fs.String("role", "client", "role (client or landlord)")
	town := fs.String("town", "", "home town (optional)")

	fs.Parse(args)

	if *email == "" || *password == "" {
		fmt.Println("Error: email and password are required")
		fs.PrintDefaults()
		return
	}

	payload := map[string]string{
		"email":     *email,
		"password":  *password,
		"full_name": *name,
		"role":      *role,
	}
	if *town != "" {
		payload["town"] = *town
	}

	data, _ := json.Marshal(payload)
	resp, err := http.Post(getAPIURL()+"/auth/register", "application/json", bytes.NewReader(data))
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	if resp.StatusCode == 201 {
		fmt.Printf("✓ User registered: %s\n", *email)
		if token, ok := result["token"].(string); ok {
			saveToken(token)
		}
	} else {
		fmt.Printf("✗ Registration failed: %v\n", result)
	}
}

func loginUser(args []string) {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "user email")
	password := fs.String("password", "", "password")

	fs.Parse(args)

	if *email == "" || *password == "" {
		fmt.Println("Error: email and password are required")
		fs.PrintDefaults()
		return
	}

	payload := map[string]string{"email": *email, "password": *password}
	data, _ := json.Marshal(payload)
	resp, err := http.Post(getAPIURL()+"/auth/login", "application/json", bytes.NewReader(data))
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	if resp.StatusCode == 200 {
		if token, ok := result["token"].(string); ok {
			saveToken(token)
			fmt.Printf("✓ Logged in as: %s\n", *email)
		}
	} else {
		fmt.Printf("✗ Login failed: %v\n", result)
	}
}

func logoutUser() {
	os.Remove(tokenFile())
	fmt.Println("✓ Logged out")
}

func whoAmI() {
	token := loadToken()
	if token == "" {
		fmt.Println("Not logged in")
		return
	}

	req, _ := http.NewRequest("GET", getAPIURL()+"/users/me", nil)
	addAuthHeader(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		fmt.Println("Token rejected, log in again")
		return
	}

	var me map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&me)
	fmt.Printf("✓ Logged in as %v (%v)\n", me["email"], me["role"])
}

// Rental commands
func listRentals(args []string) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	town := fs.String("town", "", "filter by town")
	mode := fs.String("mode", "", "filter by mode (rental or lodging)")

	fs.Parse(args)

	url := getAPIURL() + "/rentals"
	sep := "?"
	if *town != "" {
		url += sep + "town=" + *town
		sep = "&"
	}
	if *mode != "" {
		url += sep + "mode=" + *mode
	}

	resp, err := http.Get(url)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	printRentalTable(resp)
}

func listMyRentals(args []string) {
	_ = args
	req, _ := http.NewRequest("GET", getAPIURL()+"/rentals/mine", nil)
	addAuthHeader(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	printRentalTable(resp)
}

func printRentalTable(resp *http.Response) {
	var rentals []map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&rentals)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tMODE\tTOWN\tSTATUS")
	for _, r := range rentals {
		fmt.Fprintf(w, "%v\t%v\t%v\t%v\t%v\n", r["id"], r["title"], r["mode"], r["town"], r["status"])
	}
	w.Flush()
}

// bootstrapAdmin writes the first admin account straight into the database.
// Admins cannot self-register through the API, so a fresh deployment runs
// this once.
func bootstrapAdmin(args []string) {
	fs := flag.NewFlagSet("bootstrap-admin", flag.ExitOnError)
	email := fs.String("email", "", "admin email")
	password := fs.String("password", "", "admin password")
	name := fs.String("name", "Administrator", "full name")

	fs.Parse(args)

	if *email == "" || len(*password) < 8 {
		fmt.Println("Error: email and a password of at least 8 characters are required")
		fs.PrintDefaults()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := database.NewConnectionPool(ctx, &database.Config{
		Host:            cfg.DBHost,
		Port:            cfg.DBPort,
		User:            cfg.DBUser,
		Password:        cfg.DBPassword,
		Database:        cfg.DBName,
		SSLMode:         cfg.DBSSLMode,
		MaxOpenConns:    2,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Minute,
	}, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	users := repository.NewPostgresUserRepository(store.New(pool.GetDB(), nil), nil)

	hash, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to hash password: %v\n", err)
		os.Exit(1)
	}

	admin := &domain.User{
		Email:        *email,
		PasswordHash: string(hash),
		FullName:     *name,
		Role:         domain.RoleAdmin,
		Approved:     true,
	}
	if err := users.Create(admin); err != nil {
		fmt.Fprintf(os.Stderr, "failed to create admin: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✓ Admin created: %s (id %d)\n", admin.Email, admin.ID)
}

// Helper functions
func getAPIURL() string {
	if url := os.Getenv("RENTALHUB_API"); url != "" {
		return url
	}
	return "http://localhost:8080/api"
}

func tokenFile() string {
	home, _ := os.UserHomeDir()
	return home + "/.rentalhub/token"
}

func saveToken(token string) error {
	os.MkdirAll(os.Getenv("HOME")+"/.rentalhub", 0700)
	return os.WriteFile(tokenFile(), []byte(token), 0600)
}

func loadToken() string {
	data, _ := os.ReadFile(tokenFile())
	return string(data)
}

func addAuthHeader(req *http.Request) {
	token := loadToken()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func printUsage() {
	fmt.Print(`RentalHub CLI

Usage:
  rentalhub <command> [options]

Commands:
  auth             User authentication (register, login, logout, who)
  rentals          Listing operations (list, mine)
  bootstrap-admin  Create the first admin account directly in the database
  help             Show this help message

Environment Variables:
  RENTALHUB_API    API endpoint (default: http://localhost:8080/api)

Examples:
  rentalhub auth register -email user@example.com -password secret123 -role landlord
  rentalhub auth login -email user@example.com -password secret123
  rentalhub rentals list -town Douala
  rentalhub bootstrap-admin -email admin@example.com -password changeme123
`)
}
