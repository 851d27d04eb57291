package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

func main() {
	addr := flag.String("addr", "http://localhost:8000", "Gateway base URL")
	text := flag.String("text", "hello", "Text to moderate")
	imagePath := flag.String("image", "", "Optional image to moderate")
	flag.Parse()

	client := &http.Client{Timeout: 60 * time.Second}

	body, err := json.Marshal(map[string]any{"user_id": 1, "text": *text})
	if err != nil {
		log.Fatal("Failed to marshal request:", err)
	}

	resp, err := client.Post(*addr+"/moderate-text", "application/json", bytes.NewReader(body))
	if err != nil {
		log.Fatal("Failed to moderate text:", err)
	}
	printResult("text", resp)

	if *imagePath == "" {
		return
	}

	data, err := os.ReadFile(*imagePath)
	if err != nil {
		log.Fatal("Failed to read image:", err)
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filepath.Base(*imagePath))
	if err != nil {
		log.Fatal("Failed to create form file:", err)
	}
	if _, err := part.Write(data); err != nil {
		log.Fatal("Failed to write form file:", err)
	}
	if err := w.Close(); err != nil {
		log.Fatal("Failed to close form:", err)
	}

	resp, err = client.Post(*addr+"/moderate-image", w.FormDataContentType(), &buf)
	if err != nil {
		log.Fatal("Failed to moderate image:", err)
	}
	printResult("image", resp)
}

func printResult(kind string, resp *http.Response) {
	defer resp.Body.Close()

	out, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Fatal("Failed to read response:", err)
	}
	fmt.Printf("%s: %s %s\n", kind, resp.Status, bytes.TrimSpace(out))
}
