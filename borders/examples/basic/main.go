package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"

	"github.com/lgc202/borders-go/borders"
	"github.com/lgc202/borders-go/signature"
)

var (
	publicKey  = strings.Repeat("p", borders.KeyLength)
	privateKey = strings.Repeat("s", borders.KeyLength)
)

// verifier recomputes the signature over the raw query in wire order, the
// way the API does.
func verifier(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	params := borders.NewParams()
	for _, pair := range strings.Split(r.URL.RawQuery, "&") {
		k, v, _ := strings.Cut(pair, "=")
		v, _ = url.QueryUnescape(v)
		params.Set(k, v)
	}
	got, _ := params.Get(signature.Param)
	want := signature.New(publicKey, privateKey).Sign(r.Method, r.URL.Path, params.All(), string(body))

	w.Header().Set("Content-Type", "application/json")
	if got != want {
		_ = json.NewEncoder(w).Encode(map[string]any{"error": "bad signature"})
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{
		"response": map[string]any{"path": r.URL.Path, "body_bytes": len(body)},
	})
}

func main() {
	srv := httptest.NewServer(http.HandlerFunc(verifier))
	defer srv.Close()

	u, _ := url.Parse(srv.URL)
	client, err := borders.New(publicKey, privateKey, borders.WithHost(u.Host))
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()

	payload, err := client.Get(ctx, "regions", borders.NewParams("country", "NL", "limit", "10"))
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("GET  -> %v\n", payload)

	type result struct {
		Path      string `json:"path"`
		BodyBytes int    `json:"body_bytes"`
	}
	res, err := borders.Call[result](ctx, client, http.MethodPost, "/orders", map[string]any{"sku": "A-1", "qty": 2}, nil)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("POST -> %+v\n", res)

	// A key mismatch makes the fake server omit the envelope.
	other, _ := borders.New(publicKey, strings.Repeat("x", borders.KeyLength), borders.WithHost(u.Host))
	if _, err := other.Get(ctx, "regions", nil); err != nil {
		fmt.Println("wrong key ->", err)
	}

	if _, err := client.Put(ctx, "files", nil, nil); err != nil {
		fmt.Println("PUT  ->", err)
	}
}
