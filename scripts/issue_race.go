//go:build ignore
// +build ignore

// Manual concurrency stress test for the issue endpoint.
//
// Usage:
//
//	go run ./scripts/issue_race.go <isbn> <student_number1> [student_number2 ...]
//
// Or via environment variables:
//
//	ISBN=<isbn>  STUDENT_NUMBERS=<n1>,<n2>,...  go run ./scripts/issue_race.go
//
// What it does:
//  1. Fires N goroutines (one per student) all attempting to issue the same book
//     simultaneously.
//  2. Prints how many succeeded vs. were rejected as unavailable.
//  3. Exactly one request must succeed: the book row lock plus the uniq_open_loan
//     partial unique index guarantee at most one open loan per book.
//
// Prerequisites:
//   - Server must be running and migrated.
//   - The book and all students must exist (see `migrator seed`).
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"
)

const defaultServerAddr = "http://localhost:8080"

type issueResult struct {
	StudentNumber string
	Success       bool
	StatusCode    int
	Message       string
	Err           error
}

func main() {
	serverAddr := os.Getenv("SERVER_ADDR")
	if serverAddr == "" {
		serverAddr = defaultServerAddr
	}

	isbn := os.Getenv("ISBN")
	var studentNumbers []string
	if env := os.Getenv("STUDENT_NUMBERS"); env != "" {
		studentNumbers = strings.Split(env, ",")
	}

	args := os.Args[1:]
	if len(args) >= 1 {
		isbn = args[0]
	}
	if len(args) >= 2 {
		studentNumbers = args[1:]
	}

	if isbn == "" || len(studentNumbers) == 0 {
		log.Fatal("Usage: ISBN=<isbn> STUDENT_NUMBERS=<n1,n2,...> go run ./scripts/issue_race.go\n" +
			"  or: go run ./scripts/issue_race.go <isbn> <student_number1> [student_number2 ...]")
	}

	fmt.Printf("=== Issue Race Test ===\n")
	fmt.Printf("Server   : %s\n", serverAddr)
	fmt.Printf("ISBN     : %s\n", isbn)
	fmt.Printf("Students : %d\n\n", len(studentNumbers))

	results := make([]issueResult, len(studentNumbers))
	var wg sync.WaitGroup
	start := make(chan struct{})

	for i, num := range studentNumbers {
		wg.Add(1)
		go func(idx int, studentNumber string) {
			defer wg.Done()
			<-start
			results[idx] = attemptIssue(serverAddr, isbn, strings.TrimSpace(studentNumber))
		}(i, num)
	}

	fmt.Println("Firing all requests simultaneously...")
	close(start)
	wg.Wait()

	var issued, rejected, failures int
	for _, r := range results {
		switch {
		case r.Err != nil:
			failures++
			fmt.Printf("  [ERR ] student=%-10s err=%v\n", r.StudentNumber, r.Err)
		case r.Success:
			issued++
			fmt.Printf("  [ISSU] student=%-10s status=%d\n", r.StudentNumber, r.StatusCode)
		default:
			rejected++
			fmt.Printf("  [REJD] student=%-10s status=%d message=%q\n", r.StudentNumber, r.StatusCode, r.Message)
		}
	}

	fmt.Printf("\n--- Summary ---\n")
	fmt.Printf("Issued   : %d\n", issued)
	fmt.Printf("Rejected : %d\n", rejected)
	fmt.Printf("Failures : %d\n", failures)

	if issued != 1 {
		fmt.Printf("\n[FAIL] expected exactly 1 successful issue, got %d — the open-loan guard is broken\n", issued)
		os.Exit(1)
	}
	fmt.Println("\n[OK] exactly one issue succeeded, open-loan uniqueness held")
	if failures > 0 {
		os.Exit(1)
	}
}

func attemptIssue(serverAddr, isbn, studentNumber string) issueResult {
	url := fmt.Sprintf("%s/loans", serverAddr)
	body := fmt.Sprintf(`{"isbn":%q,"student_number":%q,"duration_days":14}`, isbn, studentNumber)

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Post(url, "application/json", bytes.NewBufferString(body))
	if err != nil {
		return issueResult{StudentNumber: studentNumber, Err: err}
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)

	var parsed struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return issueResult{StudentNumber: studentNumber, StatusCode: resp.StatusCode, Err: fmt.Errorf("bad JSON: %s", raw)}
	}

	return issueResult{
		StudentNumber: studentNumber,
		Success:       parsed.Success,
		StatusCode:    resp.StatusCode,
		Message:       parsed.Message,
	}
}
