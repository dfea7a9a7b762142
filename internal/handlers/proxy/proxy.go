// Package proxy forwards everything that is not the auth surface to the
// fronted upstream application.
package proxy

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

var (
	logger = log.With().Str("component", "proxy").Logger()
)

type Proxy struct {
	upstream *url.URL
	rp       *httputil.ReverseProxy
}

func New(upstream string) (*Proxy, error) {
	u, err := url.Parse(upstream)
	if err != nil {
		return nil, fmt.Errorf("proxy: invalid upstream url %q: %w", upstream, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("proxy: upstream url %q must be http or https", upstream)
	}

	rp := httputil.NewSingleHostReverseProxy(u)
	rp.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		logger.Error().Err(err).Str("path", r.URL.Path).Msg("Upstream request failed")
		// The gate decides whether this 502 reaches the caller in full.
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprint(w, http.StatusText(http.StatusBadGateway))
	}

	return &Proxy{
		upstream: u,
		rp:       rp,
	}, nil
}

// Handler serves as the gin catch-all, typically via router.NoRoute.
func (p *Proxy) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		p.rp.ServeHTTP(c.Writer, c.Request)
	}
}
