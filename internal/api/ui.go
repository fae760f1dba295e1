package api

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	apperrors "review-framework-api/internal/common/errors"
	"review-framework-api/internal/framework"
	"review-framework-api/internal/models"
)

type endpoint struct {
	Path        string
	Description string
}

var apiEndpoints = []endpoint{
	{"/files", "List all available framework files"},
	{"/files/{filename}", "Get a specific framework file"},
	{"/framework", "Get complete framework data"},
	{"/generate-review", "Generate a review using Claude and the framework"},
}

type statusPage struct {
	Directory    string
	Exists       bool
	Entries      []string
	JSONCount    int
	APIAvailable bool
	Endpoints    []endpoint
}

type reviewForm struct {
	ProductName     string
	ProductCategory string
	UserExperience  string
	Components      []string
}

type uiPage struct {
	Tab             string
	Enabled         bool
	Choices         []string
	Form            reviewForm
	Review          string
	ComponentsUsed  []string
	Info            string
	ExplorerPath    string
	ExplorerListing string
	ViewerFiles     []string
	ViewerFile      string
	ViewerContent   string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if path := s.indexFile(); path != "" {
		http.ServeFile(w, r, path)
		return
	}

	entries := s.store.ListEntries()
	s.render(w, "status.html", statusPage{
		Directory:    s.store.Directory(),
		Exists:       s.store.DirectoryExists(),
		Entries:      entries,
		JSONCount:    countWithSuffix(entries, s.store.Extension()),
		APIAvailable: s.service.GenerationEnabled(),
		Endpoints:    apiEndpoints,
	})
}

func (s *Server) handleUI(w http.ResponseWriter, r *http.Request) {
	tab := r.URL.Query().Get("tab")
	if tab == "" {
		tab = "generate"
	}
	s.render(w, "ui.html", s.newUIPage(tab))
}

// handleUIGenerate runs the same Service.Generate call as the JSON API.
func (s *Server) handleUIGenerate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.errHandler.HandleHTTPError(w, r, apperrors.NewInvalidRequestError(err.Error()))
		return
	}

	form := reviewForm{
		ProductName:     r.PostForm.Get("product_name"),
		ProductCategory: r.PostForm.Get("product_category"),
		UserExperience:  r.PostForm.Get("user_experience"),
		Components:      r.PostForm["components"],
	}

	resp, err := s.service.Generate(r.Context(), models.ReviewRequest{
		ProductName:       form.ProductName,
		ProductCategory:   form.ProductCategory,
		UserExperience:    form.UserExperience,
		IncludeComponents: form.Components,
	})
	if err != nil {
		if isClientGone(err) {
			return
		}
		s.errHandler.HandleHTTPError(w, r, apperrors.NewInternalError(err))
		return
	}

	page := s.newUIPage("generate")
	page.Form = form
	page.Review = resp.Review
	page.ComponentsUsed = resp.ComponentsUsed
	s.render(w, "ui.html", page)
}

func (s *Server) handleUIExplorer(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		path = "."
	}
	page := s.newUIPage("explorer")
	page.ExplorerPath = path
	page.ExplorerListing = listDirectory(path)
	s.render(w, "ui.html", page)
}

func (s *Server) handleUIViewer(w http.ResponseWriter, r *http.Request) {
	page := s.newUIPage("viewer")
	if file := r.URL.Query().Get("file"); file != "" {
		page.ViewerFile = framework.NormalizeName(file, s.store.Extension())
		page.ViewerContent = s.viewFile(page.ViewerFile)
	}
	s.render(w, "ui.html", page)
}

func (s *Server) newUIPage(tab string) uiPage {
	entries := s.store.ListEntries()
	return uiPage{
		Tab:          tab,
		Enabled:      s.service.GenerationEnabled(),
		Choices:      framework.Names(s.store.LoadAll()),
		Info:         s.frameworkInfo(entries),
		ExplorerPath: ".",
		ViewerFiles:  filterSuffix(entries, s.store.Extension()),
	}
}

func (s *Server) frameworkInfo(entries []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Framework Directory: %s\n", s.store.Directory())
	fmt.Fprintf(&b, "Directory exists: %t\n", s.store.DirectoryExists())

	if !s.store.DirectoryExists() {
		b.WriteString("Directory not found!\n")
		fmt.Fprintf(&b, "Available directories at root: %s\n", strings.Join(s.store.RootDirectories(), ", "))
		return b.String()
	}

	jsonFiles := filterSuffix(entries, s.store.Extension())
	fmt.Fprintf(&b, "Total files in directory: %d\n", len(entries))
	fmt.Fprintf(&b, "JSON files found: %d\n", len(jsonFiles))
	fmt.Fprintf(&b, "JSON files: %s\n", strings.Join(jsonFiles, ", "))
	return b.String()
}

func (s *Server) viewFile(name string) string {
	doc, err := s.store.ReadFile(name)
	if err != nil {
		stdErr := apperrors.AsStandardError(err)
		if stdErr.Code == apperrors.ErrCodeFrameworkFileInvalid {
			return fmt.Sprintf("Error loading %s: %s", name, stdErr.Details)
		}
		return stdErr.Message
	}
	data, err := framework.Indent(doc)
	if err != nil {
		return fmt.Sprintf("Error loading %s: %v", name, err)
	}
	return data
}

// listDirectory renders a directory as text: directories first, then files,
// each group sorted, JSON files tagged. Paths outside the working directory
// are refused.
func listDirectory(path string) string {
	clean := filepath.Clean(path)
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return fmt.Sprintf("Error listing directory %s: path must stay within the working directory", path)
	}

	entries, err := os.ReadDir(clean)
	if err != nil {
		return fmt.Sprintf("Error listing directory %s: %v", path, err)
	}

	var dirs, files []string
	for _, entry := range entries {
		name := entry.Name()
		switch {
		case entry.IsDir():
			dirs = append(dirs, fmt.Sprintf("📁 %s/", name))
		case strings.HasSuffix(name, ".json"):
			files = append(files, fmt.Sprintf("📄 %s [JSON]", name))
		default:
			files = append(files, fmt.Sprintf("📄 %s", name))
		}
	}
	sort.Strings(dirs)
	sort.Strings(files)
	return strings.Join(append(dirs, files...), "\n")
}

func filterSuffix(names []string, suffix string) []string {
	out := []string{}
	for _, name := range names {
		if strings.HasSuffix(name, suffix) {
			out = append(out, name)
		}
	}
	return out
}

func countWithSuffix(names []string, suffix string) int {
	return len(filterSuffix(names, suffix))
}
