package handler

import (
	"io"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dentalclinic/docs"
)

func TestSwaggerDocIgnoresRequestHost(t *testing.T) {
	app := newTestApp()
	RegisterSwagger(app, "clinic.example.com")

	var wg sync.WaitGroup
	for _, host := range []string{"a.example", "b.example", "c.example"} {
		wg.Add(1)
		go func(host string) {
			defer wg.Done()
			req := httptest.NewRequest("GET", "/swagger/doc.json", nil)
			req.Host = host
			resp, err := app.Test(req, -1)
			if !assert.NoError(t, err) {
				return
			}
			defer resp.Body.Close()
			body, err := io.ReadAll(resp.Body)
			if assert.NoError(t, err) {
				assert.Contains(t, string(body), `"host": "clinic.example.com"`)
				assert.NotContains(t, string(body), host)
			}
		}(host)
	}
	wg.Wait()

	require.Equal(t, "clinic.example.com", docs.SwaggerInfo.Host)
	assert.Empty(t, docs.SwaggerInfo.Schemes)
}
