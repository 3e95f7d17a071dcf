package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/golang-jwt/jwt/v5"
	"github.com/joho/godotenv"
)

// smoke walks the assistant API end to end against a running server
func main() {
	baseURL := flag.String("base", "http://localhost:3000/api/assistant/v1", "assistant API base URL")
	userId := flag.String("user", os.Getenv("SEED_USER_ID"), "user id to sign the token for")
	query := flag.String("q", "what is urgent with the Acme renewal this week?", "question to ask")
	flag.Parse()

	_ = godotenv.Load()

	token, err := signToken(*userId, os.Getenv("JWT_SECRET"))
	if err != nil {
		color.Red("Failed to sign token: %v", err)
		os.Exit(1)
	}
	client := &apiClient{base: *baseURL, token: token, http: &http.Client{Timeout: 2 * time.Minute}}

	color.Cyan("🚀 Assistant smoke test against %s\n", *baseURL)

	color.Yellow("\n1. Classify intent")
	client.call(http.MethodPost, "/intent", map[string]string{"query": *query})

	color.Yellow("\n2. Federated search")
	client.call(http.MethodPost, "/search", map[string]string{"query": *query})

	color.Yellow("\n3. Create session")
	created := client.call(http.MethodPost, "/sessions", map[string]string{})
	sessionId := dataField(created, "id")
	if sessionId == "" {
		color.Red("No session id returned, stopping")
		os.Exit(1)
	}

	color.Yellow("\n4. Ask")
	client.call(http.MethodPost, "/sessions/"+sessionId+"/answer", map[string]string{"query": *query})

	color.Yellow("\n5. Read back the session")
	client.call(http.MethodGet, "/sessions/"+sessionId, nil)

	color.Yellow("\n6. Delete the session")
	client.call(http.MethodDelete, "/sessions/"+sessionId, nil)

	color.Green("\nDone")
}

type apiClient struct {
	base  string
	token string
	http  *http.Client
}

func (c *apiClient) call(method, path string, body interface{}) map[string]interface{} {
	var reader io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, c.base+path, reader)
	if err != nil {
		color.Red("Failed: %v", err)
		return nil
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		color.Red("Failed: %v", err)
		return nil
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		color.Red("Status: %s", resp.Status)
	} else {
		color.Green("Status: %s", resp.Status)
	}

	var out map[string]interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		fmt.Println(string(raw))
		return nil
	}
	prettyPrint(out)
	return out
}

func prettyPrint(v interface{}) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("%v\n", v)
		return
	}
	fmt.Println(string(b))
}

func dataField(res map[string]interface{}, key string) string {
	data, _ := res["data"].(map[string]interface{})
	value, _ := data[key].(string)
	return value
}

func signToken(userId, secret string) (string, error) {
	if userId == "" || secret == "" {
		return "", fmt.Errorf("both -user (or SEED_USER_ID) and JWT_SECRET are required")
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userId,
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	return token.SignedString([]byte(secret))
}
