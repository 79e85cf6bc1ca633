package httpserver

import (
	"errors"
	"net"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/bubba_express/pkg/logging"
)

var errBadUpstream = errors.New("upstream url needs scheme and host")

func newTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 60 * time.Second,
		}).DialContext,
		MaxIdleConns:          200,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}

// newProxy forwards to target after cutting stripPrefix off the path.
// A negative FlushInterval makes event streams reach the browser as they are written.
func newProxy(target, stripPrefix string, transport http.RoundTripper) (echo.HandlerFunc, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, &url.Error{Op: "parse", URL: target, Err: errBadUpstream}
	}

	p := httputil.NewSingleHostReverseProxy(u)
	p.Transport = transport
	p.FlushInterval = -1

	origDirector := p.Director
	p.Director = func(req *http.Request) {
		originalHost := req.Host
		originalProto := "http"
		if req.TLS != nil {
			originalProto = "https"
		} else if xf := req.Header.Get("X-Forwarded-Proto"); xf != "" {
			originalProto = xf
		}

		origDirector(req)

		if stripPrefix != "" && strings.HasPrefix(req.URL.Path, stripPrefix) {
			req.URL.Path = strings.TrimPrefix(req.URL.Path, stripPrefix)
			if rp := req.URL.RawPath; rp != "" && strings.HasPrefix(rp, stripPrefix) {
				req.URL.RawPath = strings.TrimPrefix(rp, stripPrefix)
			}
		}

		if req.Header.Get("X-Forwarded-Proto") == "" {
			req.Header.Set("X-Forwarded-Proto", originalProto)
		}
		if req.Header.Get("X-Forwarded-Host") == "" && originalHost != "" {
			req.Header.Set("X-Forwarded-Host", originalHost)
		}
	}

	p.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		logging.FromContext(r.Context()).Error("proxy_failed", "upstream", u.Host, "path", r.URL.Path, "error", err)
		w.Header().Set(echo.HeaderContentType, echo.MIMEApplicationJSONCharsetUTF8)
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"message":"upstream unavailable"}`))
	}

	return func(c echo.Context) error {
		p.ServeHTTP(c.Response(), c.Request())
		return nil
	}, nil
}
