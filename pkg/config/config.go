// Package config owns the JSON configuration file shared by every
// integration. Every read-modify-write of the document happens under the
// Store's lock.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

const (
	xdgAppName = "schooltasks"
	configFile = "config.json"
	tokenFile  = "token.json"
)

// Section names as they appear in the document.
const (
	SectionNotion    = "Notion"
	SectionCanvas    = "Canvas"
	SectionClassroom = "Google_Classroom"
)

type Notion struct {
	APIKey       *string `json:"Notion-API-Key"`
	ParentPageID *string `json:"parent-page-id"`
}

type CanvasInstance struct {
	URL                 *string  `json:"canvas-api-url"`
	Token               *string  `json:"canvas-api-token"`
	ExcludedCourseCodes []string `json:"excluded-course-codes"`
}

type Canvas struct {
	Canvases []CanvasInstance `json:"canvases"`
}

type Classroom struct {
	ClientSecretFile *string `json:"client_secret_file"`
	TokenFile        *string `json:"token_file"`
}

// Config is the whole document. A nil section or a nil value is written as
// null so the user can see which keys to fill in.
type Config struct {
	Notion               *Notion    `json:"Notion"`
	Canvas               *Canvas    `json:"Canvas"`
	Classroom            *Classroom `json:"Google_Classroom"`
	DisabledIntegrations []string   `json:"disabled-integrations"`
}

// IncompleteError reports required keys that are missing or null.
type IncompleteError struct {
	Section string
	Keys    []string
	Path    string
}

func (e *IncompleteError) Error() string {
	return "config section " + e.Section + " is missing " + strings.Join(e.Keys, ", ") + " (edit " + e.Path + ")"
}

// Str dereferences an optional value.
func Str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// DefaultPath returns ~/.config/schooltasks/config.json.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", xdgAppName, configFile), nil
}

// Store is the lock-guarded configuration document.
type Store struct {
	mu   sync.Mutex
	path string
	data Config
}

// Load reads the document at path. A missing file is an empty document.
func Load(path string) (*Store, error) {
	s := &Store{path: path}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, errors.Wrapf(err, "opening config %s", path)
	}
	defer f.Close()

	if err := json.NewDecoder(f).Decode(&s.data); err != nil {
		return nil, errors.Wrapf(err, "decoding config %s", path)
	}
	return s, nil
}

// Path returns the file the store persists to.
func (s *Store) Path() string {
	return s.path
}

// Lock must be held around Data and Persist.
func (s *Store) Lock() {
	s.mu.Lock()
}

func (s *Store) Unlock() {
	s.mu.Unlock()
}

// Data returns the live document. The caller must hold the lock.
func (s *Store) Data() *Config {
	return &s.data
}

// Persist writes the document back. The caller must hold the lock.
func (s *Store) Persist() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return errors.Wrap(err, "creating config directory")
	}

	f, err := os.OpenFile(s.path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return errors.Wrap(err, "opening config file for writing")
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	return encoder.Encode(s.data)
}

// Snapshot returns a deep copy of the document.
func (s *Store) Snapshot() Config {
	s.mu.Lock()
	defer s.mu.Unlock()

	var c Config
	b, _ := json.Marshal(s.data)
	_ = json.Unmarshal(b, &c)
	return c
}

// Disabled reports whether the named integration is listed under
// disabled-integrations.
func (s *Store) Disabled(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.data.DisabledIntegrations {
		if strings.EqualFold(d, name) {
			return true
		}
	}
	return false
}

// update runs fill under the lock and persists if it changed the document.
func (s *Store) update(fill func(c *Config) bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !fill(&s.data) {
		return nil
	}
	return errors.Wrap(s.Persist(), "saving config defaults")
}

func fillNotion(c *Config) bool {
	if c.Notion == nil {
		c.Notion = &Notion{}
		return true
	}
	return false
}

func fillCanvas(c *Config) bool {
	if c.Canvas == nil || len(c.Canvas.Canvases) == 0 {
		c.Canvas = &Canvas{Canvases: []CanvasInstance{{ExcludedCourseCodes: []string{}}}}
		return true
	}
	changed := false
	for i := range c.Canvas.Canvases {
		if c.Canvas.Canvases[i].ExcludedCourseCodes == nil {
			c.Canvas.Canvases[i].ExcludedCourseCodes = []string{}
			changed = true
		}
	}
	return changed
}

func fillClassroom(c *Config) bool {
	if c.Classroom == nil {
		c.Classroom = &Classroom{}
		return true
	}
	return false
}

func fillDisabled(c *Config) bool {
	if c.DisabledIntegrations == nil {
		c.DisabledIntegrations = []string{}
		return true
	}
	return false
}

// Template fills every missing section with null values and saves the
// document.
func (s *Store) Template() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	fillNotion(&s.data)
	fillCanvas(&s.data)
	fillClassroom(&s.data)
	fillDisabled(&s.data)
	return s.Persist()
}

func (s *Store) incomplete(section string, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	sort.Strings(keys)
	return &IncompleteError{Section: section, Keys: keys, Path: s.path}
}

// CheckNotion returns the Notion section, or an IncompleteError when the key
// or parent page is missing.
func (s *Store) CheckNotion() (Notion, error) {
	if err := s.update(fillNotion); err != nil {
		return Notion{}, err
	}
	n := *s.Snapshot().Notion

	var missing []string
	if Str(n.APIKey) == "" {
		missing = append(missing, "Notion-API-Key")
	}
	if Str(n.ParentPageID) == "" {
		missing = append(missing, "parent-page-id")
	}
	return n, s.incomplete(SectionNotion, missing)
}

// CheckCanvas returns the configured Canvas instances. Every instance needs a
// url and a token.
func (s *Store) CheckCanvas() ([]CanvasInstance, error) {
	if err := s.update(fillCanvas); err != nil {
		return nil, err
	}
	instances := s.Snapshot().Canvas.Canvases

	seen := map[string]bool{}
	var missing []string
	for _, c := range instances {
		if Str(c.URL) == "" && !seen["canvas-api-url"] {
			seen["canvas-api-url"] = true
			missing = append(missing, "canvas-api-url")
		}
		if Str(c.Token) == "" && !seen["canvas-api-token"] {
			seen["canvas-api-token"] = true
			missing = append(missing, "canvas-api-token")
		}
	}
	return instances, s.incomplete(SectionCanvas, missing)
}

// CheckClassroom returns the Classroom section with relative paths resolved
// against the config directory. token_file defaults to token.json there.
func (s *Store) CheckClassroom() (Classroom, error) {
	if err := s.update(fillClassroom); err != nil {
		return Classroom{}, err
	}
	c := *s.Snapshot().Classroom

	if Str(c.ClientSecretFile) == "" {
		return c, s.incomplete(SectionClassroom, []string{"client_secret_file"})
	}

	dir := filepath.Dir(s.path)
	secret := s.resolve(dir, Str(c.ClientSecretFile))
	c.ClientSecretFile = &secret
	token := filepath.Join(dir, tokenFile)
	if Str(c.TokenFile) != "" {
		token = s.resolve(dir, Str(c.TokenFile))
	}
	c.TokenFile = &token
	return c, nil
}

func (s *Store) resolve(dir, p string) string {
	if strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, p[2:])
		}
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}
