// Command smoke exercises a running instance end to end: add, list, update,
// sync, delete and a webhook delivery.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/golang-jwt/jwt/v5"
	"github.com/joho/godotenv"
)

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// sessionToken mints a token shaped like the one App Bridge sends.
func sessionToken(shop, apiKey, apiSecret string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"iss":  fmt.Sprintf("https://%s/admin", shop),
		"dest": fmt.Sprintf("https://%s", shop),
		"aud":  apiKey,
		"sub":  "smoke",
		"exp":  now.Add(time.Minute).Unix(),
		"nbf":  now.Unix(),
		"iat":  now.Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(apiSecret))
}

func sendRequest(method, url, token string, headers map[string]string, body interface{}) (*http.Response, []byte, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		bodyReader = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	client := &http.Client{Timeout: 15 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	return resp, respBody, err
}

func step(title string, method, url, token string, headers map[string]string, body interface{}) []byte {
	color.Yellow("\n%s", title)
	resp, raw, err := sendRequest(method, url, token, headers, body)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	if resp.StatusCode >= 300 {
		color.Red("Status: %s", resp.Status)
	} else {
		color.Green("Status: %s", resp.Status)
	}
	fmt.Println(string(raw))
	return raw
}

func main() {
	_ = godotenv.Load()

	baseURL := getEnv("SMOKE_BASE_URL", "http://localhost:3000")
	shop := getEnv("SMOKE_SHOP", "demo.myshopify.com")
	productId := getEnv("SMOKE_PRODUCT_ID", "gid://shopify/Product/1")

	token, err := sessionToken(shop, os.Getenv("SHOPIFY_API_KEY"), os.Getenv("SHOPIFY_API_SECRET"))
	if err != nil {
		color.Red("Failed to sign session token: %v", err)
		os.Exit(1)
	}

	color.Cyan("🚀 Smoke testing %s as %s", baseURL, shop)
	notesURL := baseURL + "/api/notes"

	step("1. Add note", "POST", notesURL, token, nil, map[string]interface{}{
		"actionType": "add",
		"products":   []string{productId},
		"note":       "Smoke test note",
	})

	raw := step("2. List notes", "GET", notesURL, token, nil, nil)
	var notes []struct {
		Id   string `json:"id"`
		Note string `json:"note"`
	}
	if err := json.Unmarshal(raw, &notes); err != nil || len(notes) == 0 {
		color.Red("Expected at least one note")
		os.Exit(1)
	}
	noteId := notes[0].Id

	step("3. Update note", "POST", notesURL, token, nil, map[string]interface{}{
		"actionType": "update",
		"noteId":     noteId,
		"note":       "Smoke test note (edited)",
	})

	step("4. Sync metafield", "POST", notesURL, token, nil, map[string]interface{}{
		"actionType": "sync",
		"products":   []string{productId},
		"note":       "Smoke test note (edited)",
	})

	step("5. Delete note", "POST", notesURL, token, nil, map[string]interface{}{
		"actionType": "delete",
		"noteId":     noteId,
	})

	step("6. Webhook delivery", "POST", baseURL+"/api/webhooks", "", map[string]string{
		"X-Shopify-Topic":       "products/update",
		"X-Shopify-Shop-Domain": shop,
	}, map[string]interface{}{"id": 1, "title": "Smoke"})

	color.Green("\n✅ Smoke test finished")
}
