package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"
)

type check struct {
	Name     string
	Method   string
	Path     string
	Body     interface{}
	Expect   int
	Auth     bool
	Critical bool
}

type result struct {
	Check    check
	Status   int
	Duration time.Duration
	Error    error
}

func main() {
	var (
		base     string
		email    string
		password string
		timeout  time.Duration
	)

	flag.StringVar(&base, "base", "http://localhost:8080", "API base URL")
	flag.StringVar(&email, "email", "admin@institute.local", "admin email")
	flag.StringVar(&password, "password", "", "admin password")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "HTTP client timeout")
	flag.Parse()

	if password == "" {
		log.Fatal("admin password is required (-password)")
	}

	client := &http.Client{Timeout: timeout}

	token, err := login(client, base, email, password)
	if err != nil {
		log.Fatalf("login failed: %v", err)
	}

	checks := []check{
		{Name: "health", Method: http.MethodGet, Path: "/health", Expect: http.StatusOK, Critical: true},
		{Name: "readiness", Method: http.MethodGet, Path: "/ready", Expect: http.StatusOK, Critical: true},
		{Name: "metrics", Method: http.MethodGet, Path: "/metrics", Expect: http.StatusOK},
		{Name: "whoami", Method: http.MethodGet, Path: "/api/v1/auth/me", Expect: http.StatusOK, Auth: true, Critical: true},
		{Name: "public notices", Method: http.MethodGet, Path: "/api/v1/notices", Expect: http.StatusOK},
		{Name: "public jobs", Method: http.MethodGet, Path: "/api/v1/jobs", Expect: http.StatusOK},
		{Name: "students", Method: http.MethodGet, Path: "/api/v1/students", Expect: http.StatusOK, Auth: true, Critical: true},
		{Name: "teachers", Method: http.MethodGet, Path: "/api/v1/teachers", Expect: http.StatusOK, Auth: true},
		{Name: "classes", Method: http.MethodGet, Path: "/api/v1/classes", Expect: http.StatusOK, Auth: true},
		{Name: "subjects", Method: http.MethodGet, Path: "/api/v1/subjects", Expect: http.StatusOK, Auth: true},
		{Name: "library", Method: http.MethodGet, Path: "/api/v1/library/books", Expect: http.StatusOK, Auth: true},
		{Name: "hostel", Method: http.MethodGet, Path: "/api/v1/hostel/rooms", Expect: http.StatusOK, Auth: true},
		{Name: "transport", Method: http.MethodGet, Path: "/api/v1/transport/vehicles", Expect: http.StatusOK, Auth: true},
		{Name: "attendance register", Method: http.MethodGet, Path: "/api/v1/attendance/register", Expect: http.StatusOK, Auth: true},
		{Name: "contact inbox", Method: http.MethodGet, Path: "/api/v1/contact", Expect: http.StatusOK, Auth: true},
		{Name: "dashboard", Method: http.MethodGet, Path: "/api/v1/dashboard", Expect: http.StatusOK, Auth: true},
		{Name: "unauthenticated rejection", Method: http.MethodGet, Path: "/api/v1/students", Expect: http.StatusUnauthorized, Critical: true},
	}

	var (
		results []result
		failed  int
	)
	for _, c := range checks {
		res := run(client, base, token, c)
		if res.Error != nil || res.Status != c.Expect {
			if c.Critical {
				failed++
			}
		}
		results = append(results, res)
	}

	printReport(results)

	if failed > 0 {
		fmt.Printf("critical failures: %d\n", failed)
		os.Exit(1)
	}
	fmt.Println("all critical checks passed")
}

func login(client *http.Client, base, email, password string) (string, error) {
	payload, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return "", err
	}
	resp, err := client.Post(strings.TrimRight(base, "/")+"/api/v1/auth/login", "application/json", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var envelope struct {
		Data struct {
			AccessToken string `json:"access_token"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return "", err
	}
	if envelope.Data.AccessToken == "" {
		return "", fmt.Errorf("no access token in response")
	}
	return envelope.Data.AccessToken, nil
}

func run(client *http.Client, base, token string, c check) result {
	res := result{Check: c}

	var reader io.Reader
	if c.Body != nil {
		payload, err := json.Marshal(c.Body)
		if err != nil {
			res.Error = err
			return res
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(c.Method, strings.TrimRight(base, "/")+c.Path, reader)
	if err != nil {
		res.Error = err
		return res
	}
	if c.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Auth {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := client.Do(req)
	res.Duration = time.Since(start)
	if err != nil {
		res.Error = err
		return res
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	res.Status = resp.StatusCode
	return res
}

func printReport(results []result) {
	fmt.Printf("%-28s %-8s %-6s %-10s %s\n", "CHECK", "STATUS", "WANT", "DURATION", "RESULT")
	for _, r := range results {
		outcome := "ok"
		switch {
		case r.Error != nil:
			outcome = fmt.Sprintf("error: %v", r.Error)
		case r.Status != r.Check.Expect:
			outcome = "mismatch"
		}
		fmt.Printf("%-28s %-8d %-6d %-10s %s\n", r.Check.Name, r.Status, r.Check.Expect, r.Duration.Round(time.Millisecond), outcome)
	}
}
