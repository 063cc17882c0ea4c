package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/lgc202/borders-go/httpx"
)

func main() {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The query arrives exactly as it was built.
		fmt.Println("server saw query:", r.URL.RawQuery)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"response":{"id":12345678901234567890}}`)
	}))
	defer srv.Close()

	client, err := httpx.New(
		httpx.WithTimeout(3*time.Second),
		httpx.WithDefaultHeader("Content-Type", "application/json"),
	)
	if err != nil {
		panic(err)
	}

	req, err := client.NewRequest(context.Background(), http.MethodGet, srv.URL+"/v1/users?z=1&a=hello+world",
		httpx.WithRequestTimeout(time.Second),
	)
	if err != nil {
		panic(err)
	}
	resp, err := client.Send(req)
	if err != nil {
		panic(err)
	}

	var out struct {
		Response map[string]any `json:"response"`
	}
	if err := resp.JSON(&out); err != nil {
		panic(err)
	}
	fmt.Println("status =", resp.StatusCode, "id =", out.Response["id"])
}
