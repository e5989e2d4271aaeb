package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tphummel/server_inventory/internal/models"
	"github.com/tphummel/server_inventory/internal/normalize"
	"google.golang.org/genai"
)

// generateFunc sends prompt to the model. A non-nil schema asks for a JSON
// response constrained to it.
type generateFunc func(ctx context.Context, prompt string, schema *genai.Schema) (string, error)

// Gemini is an Assistant backed by the Gemini API.
type Gemini struct {
	generate generateFunc
	now      func() time.Time
	newID    func() string
}

var _ Assistant = (*Gemini)(nil)

// NewGemini returns an Assistant calling model with apiKey.
func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	gen := func(ctx context.Context, prompt string, schema *genai.Schema) (string, error) {
		var cfg *genai.GenerateContentConfig
		if schema != nil {
			cfg = &genai.GenerateContentConfig{
				ResponseMIMEType: "application/json",
				ResponseSchema:   schema,
			}
		}
		resp, err := client.Models.GenerateContent(ctx, model, genai.Text(prompt), cfg)
		if err != nil {
			return "", err
		}
		return resp.Text(), nil
	}
	return newGemini(gen), nil
}

func newGemini(gen generateFunc) *Gemini {
	return &Gemini{generate: gen, now: time.Now, newID: uuid.NewString}
}

// snapshotEntry is the condensed view of a server sent with analysis prompts.
type snapshotEntry struct {
	Name      string `json:"name"`
	IP        string `json:"ip"`
	OS        string `json:"os"`
	Resources string `json:"resources"`
	Owner     string `json:"owner"`
	Dept      string `json:"dept"`
	Backup    string `json:"backup"`
	Patched   string `json:"patched"`
}

func snapshot(servers []models.Server) ([]byte, error) {
	entries := make([]snapshotEntry, 0, len(servers))
	for _, s := range servers {
		backup := "Yok"
		if s.IsBackedUp {
			backup = "Aktif"
		}
		entries = append(entries, snapshotEntry{
			Name:      s.Name,
			IP:        s.IPAddress,
			OS:        strings.TrimSpace(string(s.OS) + " " + s.OSVersion),
			Resources: fmt.Sprintf("%s vCPU, %s RAM", s.CPU, s.Memory),
			Owner:     s.Owner,
			Dept:      s.Department,
			Backup:    backup,
			Patched:   s.LastPatchedDate,
		})
	}
	return json.Marshal(entries)
}

const analyzePrompt = `You are an infrastructure analyst for an operations team.
Inventory data (JSON): %s

Question: %q

Analyze the data and answer professionally in Turkish. Emphasize technical details and risks such as missing backups and stale patches.`

// Analyze answers prompt with a snapshot of servers as context.
func (g *Gemini) Analyze(ctx context.Context, servers []models.Server, prompt string) (string, error) {
	data, err := snapshot(servers)
	if err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}
	text, err := g.generate(ctx, fmt.Sprintf(analyzePrompt, data, prompt), nil)
	if err != nil {
		return "", fmt.Errorf("analyze: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

const extractPrompt = `Extract server records from the text below.
Only use dotted-quad IPv4 addresses; skip any server that only has an IPv6 address.
Set lastPatchedDate to null unless the text states a patch date (YYYY-MM-DD).

Text: %q`

// serverSchema constrains extraction output to an array of server records.
var serverSchema = &genai.Schema{
	Type: genai.TypeArray,
	Items: &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"name":            {Type: genai.TypeString},
			"ipAddress":       {Type: genai.TypeString},
			"os":              {Type: genai.TypeString, Enum: []string{"Linux", "Windows", "Other"}},
			"osVersion":       {Type: genai.TypeString},
			"cpu":             {Type: genai.TypeString},
			"memory":          {Type: genai.TypeString},
			"vCenterName":     {Type: genai.TypeString},
			"department":      {Type: genai.TypeString},
			"owner":           {Type: genai.TypeString},
			"isBackedUp":      {Type: genai.TypeBoolean},
			"lastPatchedDate": {Type: genai.TypeString, Nullable: genai.Ptr(true)},
		},
		Required: []string{"name", "ipAddress"},
	},
}

type extracted struct {
	Name            string  `json:"name"`
	IPAddress       string  `json:"ipAddress"`
	OS              string  `json:"os"`
	OSVersion       string  `json:"osVersion"`
	CPU             string  `json:"cpu"`
	Memory          string  `json:"memory"`
	VCenterName     string  `json:"vCenterName"`
	Department      string  `json:"department"`
	Owner           string  `json:"owner"`
	IsBackedUp      bool    `json:"isBackedUp"`
	LastPatchedDate *string `json:"lastPatchedDate"`
}

// ExtractServers asks the model for server records found in text. Model
// output is not trusted: records without a dotted-quad IPv4 address are
// dropped and every kept record gets the usual defaults and a fresh id.
func (g *Gemini) ExtractServers(ctx context.Context, text string) ([]models.Server, error) {
	out, err := g.generate(ctx, fmt.Sprintf(extractPrompt, text), serverSchema)
	if err != nil {
		return nil, fmt.Errorf("extract servers: %w", err)
	}
	if strings.TrimSpace(out) == "" {
		return nil, ErrEmptyResponse
	}
	var raw []extracted
	if err := json.Unmarshal([]byte(out), &raw); err != nil {
		return nil, fmt.Errorf("decode model output: %w", err)
	}

	now := g.now().UTC()
	servers := make([]models.Server, 0, len(raw))
	for _, r := range raw {
		if s, ok := g.toServer(r, now); ok {
			servers = append(servers, s)
		}
	}
	return servers, nil
}

func (g *Gemini) toServer(r extracted, now time.Time) (models.Server, bool) {
	ip := strings.TrimSpace(r.IPAddress)
	if normalize.IsIPv6Like(ip) || !normalize.IsIPv4(ip) {
		return models.Server{}, false
	}

	os := models.OSFamily(r.OS)
	if !models.ValidOS[os] {
		os = normalize.ClassifyOS(r.OS + " " + r.OSVersion)
	}
	var patched string
	if r.LastPatchedDate != nil {
		if d, ok := normalize.NormalizeDate(*r.LastPatchedDate); ok {
			patched = d
		}
	}

	return models.Server{
		ID:               g.newID(),
		Name:             normalize.OrDefault(r.Name, models.UnknownName),
		IPAddress:        ip,
		OS:               os,
		OSVersion:        strings.TrimSpace(r.OSVersion),
		CPU:              normalize.NormalizeCPU(r.CPU),
		Memory:           normalize.NormalizeMemory(r.Memory),
		Disk:             models.FixedDisk,
		InfraType:        models.InfraVirtual,
		VCenterName:      normalize.OrDefault(r.VCenterName, models.DefaultVCenter),
		InstallationDate: now.Format(models.DateLayout),
		LastPatchedDate:  patched,
		Department:       strings.TrimSpace(r.Department),
		Owner:            strings.TrimSpace(r.Owner),
		IsBackedUp:       r.IsBackedUp,
		UpdatedAt:        now,
	}, true
}
