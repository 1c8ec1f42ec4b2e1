// Command setup_collections creates the attendance collections on an external PocketBase over REST.
// Use scripts/pbserve instead when running PocketBase embedded.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
)

const pocketbaseURL = "http://192.168.100.100:8090"

const clockPattern = `^$|^([01]?[0-9]|2[0-3]):[0-5][0-9]$`

var httpClient = &http.Client{Timeout: 10 * time.Second}

func main() {
	fmt.Println("🚀 PocketBase Collection Setup Script")
	fmt.Println("=====================================")

	// Load .env file if exists
	_ = godotenv.Load()

	url := getEnv("POCKETBASE_URL", pocketbaseURL)
	token := getEnv("POCKETBASE_TOKEN", "")

	fmt.Printf("Connecting to: %s\n", url)

	if err := checkHealth(url); err != nil {
		fmt.Printf("❌ Cannot connect to PocketBase: %v\n", err)
		fmt.Printf("\nCheck with: curl %s/api/health\n", url)
		os.Exit(1)
	}

	if token == "" {
		fmt.Println("❌ POCKETBASE_TOKEN not set")
		fmt.Println("\nPlease set:")
		fmt.Println("  export POCKETBASE_TOKEN=your_superuser_token")
		os.Exit(1)
	}

	if err := testAuth(url, token); err != nil {
		fmt.Printf("❌ Auth test failed: %v\n", err)
		os.Exit(1)
	}

	collections := []struct {
		name    string
		fields  []map[string]any
		indexes []string
	}{
		{
			name: "attendance",
			fields: []map[string]any{
				textField("record_key", true, 300, ""),
				textField("employee_name", true, 255, ""),
				textField("department", false, 255, ""),
				textField("date", false, 10, ""),
				textField("s1", false, 5, clockPattern),
				textField("s2", false, 5, clockPattern),
				textField("c1", false, 5, clockPattern),
				textField("c2", false, 5, clockPattern),
			},
			indexes: []string{
				"CREATE UNIQUE INDEX `idx_attendance_record_key` ON `attendance` (`record_key`)",
				"CREATE INDEX `idx_attendance_department` ON `attendance` (`department`)",
			},
		},
		{
			name: "lateReasons",
			fields: []map[string]any{
				textField("record_key", true, 300, ""),
				textField("morning", false, 500, ""),
				textField("afternoon", false, 500, ""),
			},
			indexes: []string{
				"CREATE UNIQUE INDEX `idx_late_reasons_record_key` ON `lateReasons` (`record_key`)",
			},
		},
	}

	failed := false
	for _, col := range collections {
		fmt.Printf("\n📦 Creating collection: %s\n", col.name)
		if err := createCollection(url, token, col.name, col.fields, col.indexes); err != nil {
			fmt.Printf("   ⚠️  %v\n", err)
			failed = true
		} else {
			fmt.Printf("   ✅ Ready\n")
		}
	}

	if failed {
		os.Exit(1)
	}
	fmt.Println("\n🎉 Setup complete!")
	fmt.Printf("\nAccess Admin UI: %s/_/\n", url)
}

func testAuth(baseURL, token string) error {
	req, err := http.NewRequest(http.MethodGet, baseURL+"/api/collections", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", token)

	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	fmt.Println("✅ Authentication successful")
	return nil
}

func createCollection(baseURL, token, name string, fields []map[string]any, indexes []string) error {
	payload, err := json.Marshal(map[string]any{
		"name":    name,
		"type":    "base",
		"fields":  fields,
		"indexes": indexes,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, baseURL+"/api/collections", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", token)

	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	if resp.StatusCode == http.StatusBadRequest && (bytes.Contains(body, []byte("already exists")) || bytes.Contains(body, []byte("must be unique"))) {
		fmt.Printf("   Collection exists, attempting to add missing fields...\n")
		return addMissingFields(baseURL, token, name, fields)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("create failed: %s - %s", resp.Status, string(body))
	}

	fmt.Printf("   Created with %d fields\n", len(fields))
	return nil
}

func addMissingFields(baseURL, token, name string, fields []map[string]any) error {
	req, err := http.NewRequest(http.MethodGet, baseURL+"/api/collections/"+name, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", token)

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to get collection: %w", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	var existing struct {
		Fields []map[string]any `json:"fields"`
	}
	if err := json.Unmarshal(body, &existing); err != nil {
		return fmt.Errorf("failed to parse collection: %w", err)
	}

	have := make(map[string]bool, len(existing.Fields))
	for _, f := range existing.Fields {
		if n, ok := f["name"].(string); ok {
			have[n] = true
		}
	}

	var missing []map[string]any
	for _, f := range fields {
		if !have[f["name"].(string)] {
			missing = append(missing, f)
		}
	}
	if len(missing) == 0 {
		fmt.Printf("   All fields already exist\n")
		return nil
	}

	payload, err := json.Marshal(map[string]any{"fields": append(existing.Fields, missing...)})
	if err != nil {
		return err
	}
	req, err = http.NewRequest(http.MethodPatch, baseURL+"/api/collections/"+name, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", token)

	resp, err = httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to update: %w", err)
	}
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("update failed: %s - %s", resp.Status, string(body))
	}

	fmt.Printf("   Added %d new fields\n", len(missing))
	return nil
}

func textField(name string, required bool, maxLen int, pattern string) map[string]any {
	return map[string]any{
		"name":     name,
		"type":     "text",
		"required": required,
		"max":      maxLen,
		"pattern":  pattern,
	}
}

func checkHealth(baseURL string) error {
	resp, err := httpClient.Get(baseURL + "/api/health")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check failed: %s", resp.Status)
	}

	body, _ := io.ReadAll(resp.Body)
	fmt.Printf("✅ PocketBase is running: %s\n", string(body))
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
