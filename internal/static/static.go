package static

import (
	"io"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/crewjam/csp"

	"github.com/angeloszaimis/solar-site/config"
)

const indexFile = "index.html"

var contentTypes = map[string]string{
	".html": "text/html; charset=utf-8",
	".css":  "text/css; charset=utf-8",
	".js":   "application/javascript; charset=utf-8",
	".json": "application/json; charset=utf-8",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".svg":  "image/svg+xml",
	".ico":  "image/x-icon",
}

const defaultContentType = "application/octet-stream"

// ContentType returns the Content-Type served for a file name.
func ContentType(name string) string {
	if ct, ok := contentTypes[strings.ToLower(filepath.Ext(name))]; ok {
		return ct
	}
	return defaultContentType
}

// Server serves regular files below a root directory.
type Server struct {
	root   string
	csp    string
	logger *slog.Logger
}

// New returns a Server rooted at root, which is made absolute. When policy
// has any sources, 200 responses carry a Content-Security-Policy header.
func New(root string, policy config.CSPConfig, logger *slog.Logger) (*Server, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	s := &Server{root: abs, logger: logger}
	if !policy.Empty() {
		s.csp = csp.Header{
			DefaultSrc: policy.DefaultSrc,
			ScriptSrc:  policy.ScriptSrc,
			StyleSrc:   policy.StyleSrc,
			ImgSrc:     policy.ImgSrc,
			FontSrc:    policy.FontSrc,
		}.String()
	}

	return s, nil
}

// Root returns the absolute root directory.
func (s *Server) Root() string {
	return s.root
}

// Resolve maps a decoded URL path to a file path. ok is false when the path
// climbs out of the root.
func (s *Server) Resolve(urlPath string) (name string, ok bool) {
	// Cleaned as a relative path so leading ".." segments are kept and can
	// be caught below instead of being silently dropped.
	rel := path.Clean(strings.TrimLeft(urlPath, "/"))
	if rel == "." {
		rel = indexFile
	}
	name = filepath.Join(s.root, filepath.FromSlash(rel))

	return name, within(s.root, name)
}

func within(root, name string) bool {
	rel, err := filepath.Rel(root, name)
	if err != nil {
		return false
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return false
	}
	return !filepath.IsAbs(rel)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name, ok := s.Resolve(r.URL.Path)
	if !ok {
		s.logger.Debug("Rejected path outside root", slog.String("path", r.URL.Path))
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	f, err := os.Open(name)
	if err != nil {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || !info.Mode().IsRegular() {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", ContentType(name))
	if s.csp != "" {
		w.Header().Set("Content-Security-Policy", s.csp)
	}
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, f); err != nil {
		s.logger.Debug("Static copy interrupted",
			slog.String("file", name),
			slog.Any("err", err))
	}
}
