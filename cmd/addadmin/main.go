package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

type adminBlock struct {
	Admin struct {
		Email        string `yaml:"email"`
		PasswordHash string `yaml:"passwordHash"`
	} `yaml:"admin"`
}

// Prints the admin section of the server config for the given credential.
// The password is read from stdin when -password is omitted.
func main() {
	email := flag.String("email", "", "Admin email (required)")
	password := flag.String("password", "", "Admin password (read from stdin when empty)")
	cost := flag.Int("cost", bcrypt.DefaultCost, "bcrypt cost")
	flag.Parse()

	if strings.TrimSpace(*email) == "" {
		fmt.Println("Error: email is required")
		fmt.Println("\nUsage:")
		flag.PrintDefaults()
		os.Exit(1)
	}

	pw := *password
	if pw == "" {
		fmt.Fprint(os.Stderr, "Password: ")
		var err error
		if pw, err = readLine(os.Stdin); err != nil {
			log.Fatalf("Failed to read password: %v", err)
		}
	}

	out, err := render(*email, pw, *cost)
	if err != nil {
		log.Fatalf("%v", err)
	}
	fmt.Print(out)
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func render(email, password string, cost int) (string, error) {
	if len(password) < 8 {
		return "", fmt.Errorf("password must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	var block adminBlock
	block.Admin.Email = strings.TrimSpace(email)
	block.Admin.PasswordHash = string(hash)
	out, err := yaml.Marshal(block)
	if err != nil {
		return "", fmt.Errorf("failed to encode config: %w", err)
	}
	return string(out), nil
}
