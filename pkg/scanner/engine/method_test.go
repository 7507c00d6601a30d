package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInferMethod(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
		context  string
		want     string
	}{
		{name: "axios call", endpoint: "/auth/login", context: `axios.post("/auth/login")`, want: "POST"},
		{name: "angular http client", endpoint: "/api/users", context: `this.http.delete("/api/users")`, want: "DELETE"},
		{name: "uppercase client", endpoint: "/api/users", context: `API.Patch ("/api/users")`, want: "PATCH"},
		{name: "unknown client falls through", endpoint: "/create", context: `myclient.get("/create")`, want: "POST"},
		{name: "method option", endpoint: "/login", context: `fetch("/login", { method: "DELETE" })`, want: "DELETE"},
		{name: "method option lowercase", endpoint: "/items", context: `fetch(url, {method:'put'})`, want: "PUT"},
		{name: "quoted verb", endpoint: "/items", context: `xhr.open("patch", "/items")`, want: "PATCH"},
		{name: "quoted verb order", endpoint: "/items", context: `["DELETE", "GET"]`, want: "GET"},
		{name: "brace id", endpoint: "/users/{id}/delete", context: "", want: "GET"},
		{name: "colon id", endpoint: "/users/:id", context: "", want: "GET"},
		{name: "numeric segment", endpoint: "/orders/42/remove", context: "", want: "GET"},
		{name: "login", endpoint: "/auth/login", context: "", want: "POST"},
		{name: "upload", endpoint: "/files/upload", context: "", want: "POST"},
		{name: "update", endpoint: "/profile/update", context: "", want: "PUT"},
		{name: "edit", endpoint: "/post/edit", context: "", want: "PUT"},
		{name: "remove", endpoint: "/cart/remove", context: "", want: "DELETE"},
		{name: "default", endpoint: "/health", context: `const x = 1`, want: "GET"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InferMethod(tt.endpoint, tt.context))
		})
	}
}
