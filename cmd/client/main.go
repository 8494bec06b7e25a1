package main

import (
	"bytes"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

// Uploads a local file to the depot, reads it back and prints the
// store analytics. Tags for the upload may be passed after the path.
func main() {
	if len(os.Args) < 2 {
		log.Fatal().Msg("usage: client <file> [tag ...]")
	}
	path := os.Args[1]
	tags := os.Args[2:]

	baseURL := os.Getenv("DEPOT_ADDR")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	content, err := os.ReadFile(path)
	if err != nil {
		log.Fatal().Err(err).Msg("Error reading file")
	}

	name := filepath.Base(path)
	fileType := mime.TypeByExtension(filepath.Ext(path))
	if fileType == "" {
		fileType = "application/octet-stream"
	}

	body, err := json.Marshal(map[string]any{
		"name":      name,
		"content":   content,
		"file_type": fileType,
		"tags":      tags,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Error encoding request")
	}

	httpClient := &http.Client{}

	resp, err := httpClient.Post(baseURL+"/api/v1/files", "application/json", bytes.NewReader(body))
	if err != nil {
		log.Fatal().Err(err).Msg("Error sending request")
	}
	d, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	log.Debug().
		Int("status", resp.StatusCode).
		Str("file_name", name).
		Msg("Check upload response")
	if resp.StatusCode != http.StatusCreated {
		log.Fatal().Str("body", string(d)).Msg("upload rejected")
	}

	resp, err = httpClient.Get(baseURL + "/api/v1/files/" + url.PathEscape(name))
	if err != nil {
		log.Fatal().Err(err).Msg("Error downloading file")
	}
	d, err = io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		log.Fatal().Err(err).Msg("Error reading response")
	}

	var stored struct {
		Content  []byte `json:"content"`
		Metadata struct {
			Size     int64    `json:"size"`
			FileType string   `json:"file_type"`
			Tags     []string `json:"tags"`
		} `json:"metadata"`
	}
	if err := json.Unmarshal(d, &stored); err != nil {
		log.Fatal().Err(err).Msg("Error decoding stored file")
	}
	if !bytes.Equal(stored.Content, content) {
		log.Fatal().Msg("stored content differs from the local file")
	}
	log.Info().
		Str("file_name", name).
		Int64("file_size", stored.Metadata.Size).
		Str("file_type", stored.Metadata.FileType).
		Strs("tags", stored.Metadata.Tags).
		Msg("File stored and verified")

	resp, err = httpClient.Get(baseURL + "/api/v1/analytics")
	if err != nil {
		log.Fatal().Err(err).Msg("Error fetching analytics")
	}
	d, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	log.Info().RawJSON("analytics", d).Msg("Depot analytics")
}
