package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"checkin-server-go/models"
)

const (
	instancesKey   = "appInstances"           // String (global): JSON array of instances
	userDetailsKey = "userDetails"            // String: JSON user details of an instance
	gateKey        = "ultimaPortariaCadastro" // String: last gate letter used at registration
)

var (
	// ErrInstanceNotFound is returned for unknown instance ids
	ErrInstanceNotFound = errors.New("instance not found")
	// ErrInstanceIncomplete is returned when a new instance lacks its name or passwords
	ErrInstanceIncomplete = errors.New("instance name, login password and admin password are required")
	// ErrInvalidGate is returned for gate values other than one letter A-Z
	ErrInvalidGate = errors.New("gate must be a single letter A-Z")
)

// NewInstance carries what an operator fills in to create an event
type NewInstance struct {
	Name           string             `json:"name"`
	LoginPassword  string             `json:"loginPassword"`
	AdminPassword  string             `json:"adminPassword"`
	CommonKeywords string             `json:"commonKeywords"`
	User           models.UserDetails `json:"user"`
}

// InstanceStore keeps the registry of events hosted on this station
type InstanceStore struct {
	kv KV
}

// NewInstanceStore creates a new InstanceStore instance
func NewInstanceStore(kv KV) *InstanceStore {
	return &InstanceStore{kv: kv}
}

// List returns every registered instance
func (s *InstanceStore) List(ctx context.Context) ([]models.Instance, error) {
	raw, ok, err := s.kv.Get(ctx, GlobalNamespace, instancesKey)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []models.Instance{}, nil
	}
	var instances []models.Instance
	if err := json.Unmarshal([]byte(raw), &instances); err != nil {
		log.Printf("Failed to parse instance registry, clearing it: %v", err)
		if delErr := s.kv.Delete(ctx, GlobalNamespace, instancesKey); delErr != nil {
			return nil, delErr
		}
		return []models.Instance{}, nil
	}
	return instances, nil
}

// Get looks up a registered instance
func (s *InstanceStore) Get(ctx context.Context, id string) (*models.Instance, error) {
	instances, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range instances {
		if instances[i].ID == id {
			return &instances[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrInstanceNotFound, id)
}

// Create registers a new event with its initial settings override
func (s *InstanceStore) Create(ctx context.Context, req NewInstance, settings *SettingsStore) (*models.Instance, error) {
	if strings.TrimSpace(req.Name) == "" || req.LoginPassword == "" || req.AdminPassword == "" {
		return nil, ErrInstanceIncomplete
	}
	instances, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	inst := models.Instance{
		ID:        "inst-" + uuid.NewString(),
		Name:      strings.TrimSpace(req.Name),
		CreatedAt: time.Now().UTC(),
	}

	user, err := json.Marshal(req.User)
	if err != nil {
		return nil, fmt.Errorf("failed to encode user details: %w", err)
	}
	if err := s.kv.Set(ctx, inst.ID, userDetailsKey, string(user)); err != nil {
		return nil, err
	}

	override := map[string]interface{}{
		"SENHA_LOGIN":      req.LoginPassword,
		"SENHA_ADMIN_REAL": req.AdminPassword,
	}
	if req.CommonKeywords != "" {
		override["PALAVRAS_CHAVE_COMUM"] = req.CommonKeywords
	}
	if err := settings.Save(ctx, inst.ID, override); err != nil {
		return nil, err
	}

	data, err := json.Marshal(append(instances, inst))
	if err != nil {
		return nil, fmt.Errorf("failed to encode instance registry: %w", err)
	}
	if err := s.kv.Set(ctx, GlobalNamespace, instancesKey, string(data)); err != nil {
		return nil, err
	}
	log.Printf("Created instance %s (%s)", inst.Name, inst.ID)
	return &inst, nil
}

// GetGate returns the last gate letter used by an instance, or ""
func (s *InstanceStore) GetGate(ctx context.Context, id string) (string, error) {
	gate, _, err := s.kv.Get(ctx, id, gateKey)
	return gate, err
}

// SetGate remembers the gate letter. An empty value clears it.
func (s *InstanceStore) SetGate(ctx context.Context, id, gate string) error {
	gate = strings.ToUpper(strings.TrimSpace(gate))
	if gate == "" {
		return s.kv.Delete(ctx, id, gateKey)
	}
	if len(gate) != 1 || gate[0] < 'A' || gate[0] > 'Z' {
		return ErrInvalidGate
	}
	return s.kv.Set(ctx, id, gateKey, gate)
}
