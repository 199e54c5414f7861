package main

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

const (
	defaultPort           = "8090"
	defaultIdentityHeader = "dev-identity-secret"
	defaultLatencyMs      = "50"
	tokenLifetime         = time.Hour
)

// IssuancePayload is the subset of the issuance request the mock checks.
type IssuancePayload struct {
	Authority string `json:"authority"`
	Type      string `json:"type"`
	Manifest  string `json:"manifest"`
	Callback  struct {
		URL     string            `json:"url"`
		State   string            `json:"state"`
		Headers map[string]string `json:"headers"`
	} `json:"callback"`
	Claims map[string]string `json:"claims"`
}

type IssuanceResponse struct {
	RequestID string `json:"requestId"`
	URL       string `json:"url"`
	Expiry    int64  `json:"expiry"`
}

type ErrorResponse struct {
	RequestID string      `json:"requestId"`
	Date      string      `json:"date"`
	Error     ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

var (
	identityHeader = getEnv("IDENTITY_HEADER", defaultIdentityHeader)
	latencyMs      = getEnvInt("LATENCY_MS", defaultLatencyMs)
	sendCallbacks  = getEnv("SEND_CALLBACKS", "true") == "true"
	tokenCounter   atomic.Int64
)

func main() {
	port := getEnv("PORT", defaultPort)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", handleHealth)
	mux.HandleFunc("GET /msi/token", handleToken)
	mux.HandleFunc("POST /v1.0/{tenant}/verifiableCredentials/issuanceRequests", handleIssuance)

	log.Printf("Mock Verified ID starting on port %s", port)
	log.Printf("Identity header: %s", identityHeader)
	log.Printf("Simulated latency: %dms, callbacks enabled: %v", latencyMs, sendCallbacks)

	if err := http.ListenAndServe(":"+port, mux); err != nil {
		log.Fatal(err)
	}
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "verifiedid-mock",
	})
}

// handleToken mimics the platform managed identity endpoint.
func handleToken(w http.ResponseWriter, r *http.Request) {
	time.Sleep(time.Duration(latencyMs) * time.Millisecond)

	if r.Header.Get("X-IDENTITY-HEADER") != identityHeader {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte("forbidden"))
		return
	}
	if r.URL.Query().Get("resource") == "" {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte("resource is required"))
		return
	}

	n := tokenCounter.Add(1)
	expiresOn := time.Now().Add(tokenLifetime).Unix()
	log.Printf("Issued identity token #%d", n)
	writeJSON(w, http.StatusOK, map[string]string{
		"access_token": fmt.Sprintf("mock-token-%d", n),
		"expires_on":   strconv.FormatInt(expiresOn, 10),
		"resource":     r.URL.Query().Get("resource"),
		"token_type":   "Bearer",
	})
}

// handleIssuance mimics the issuance request API. Magic claims drive
// failures: firstName "Reject" yields 400, "Crash" yields 500.
func handleIssuance(w http.ResponseWriter, r *http.Request) {
	time.Sleep(time.Duration(latencyMs) * time.Millisecond)

	if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer mock-token-") {
		sendError(w, http.StatusUnauthorized, "Unauthorized", "bearer token missing or unknown")
		return
	}

	var payload IssuancePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		sendError(w, http.StatusBadRequest, "BadRequest", "invalid body: "+err.Error())
		return
	}
	if missing := missingFields(payload); missing != "" {
		sendError(w, http.StatusBadRequest, "BadRequest", missing+" is required")
		return
	}

	switch payload.Claims["firstName"] {
	case "Reject":
		sendError(w, http.StatusBadRequest, "BadRequest", "claims rejected by issuer")
		return
	case "Crash":
		sendError(w, http.StatusInternalServerError, "InternalServerError", "issuer unavailable")
		return
	}

	requestID := newID()
	log.Printf("Issuance request %s for %s (tenant %s, state %s)", requestID, payload.Type, r.PathValue("tenant"), payload.Callback.State)

	if sendCallbacks && payload.Callback.URL != "" {
		go deliverCallbacks(payload, requestID)
	}

	writeJSON(w, http.StatusCreated, IssuanceResponse{
		RequestID: requestID,
		URL:       "openid-vc://?request_uri=https://verifiedid.mock/request/" + requestID,
		Expiry:    time.Now().Add(5 * time.Minute).Unix(),
	})
}

func missingFields(p IssuancePayload) string {
	switch {
	case p.Authority == "":
		return "authority"
	case p.Type == "":
		return "type"
	case p.Manifest == "":
		return "manifest"
	case p.Callback.URL == "":
		return "callback.url"
	case p.Callback.State == "":
		return "callback.state"
	}
	return ""
}

// deliverCallbacks walks the wallet through retrieval and issuance.
func deliverCallbacks(p IssuancePayload, requestID string) {
	for _, status := range []string{"request_retrieved", "issuance_successful"} {
		time.Sleep(500 * time.Millisecond)
		body, _ := json.Marshal(map[string]string{
			"requestId":     requestID,
			"requestStatus": status,
			"state":         p.Callback.State,
		})
		req, err := http.NewRequest(http.MethodPost, p.Callback.URL, bytes.NewReader(body))
		if err != nil {
			log.Printf("Callback build failed: %v", err)
			return
		}
		req.Header.Set("Content-Type", "application/json")
		for k, v := range p.Callback.Headers {
			req.Header.Set(k, v)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			log.Printf("Callback %s for %s failed: %v", status, requestID, err)
			return
		}
		resp.Body.Close()
		log.Printf("Callback %s for %s -> %d", status, requestID, resp.StatusCode)
	}
}

func sendError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		RequestID: newID(),
		Date:      time.Now().UTC().Format(time.RFC1123),
		Error:     ErrorDetail{Code: code, Message: message},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newID() string {
	buf := make([]byte, 16)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key, fallback string) int {
	v, err := strconv.Atoi(getEnv(key, fallback))
	if err != nil {
		return 0
	}
	return v
}
