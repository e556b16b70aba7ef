package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/DenisKhanov/TransitBot/internal/tg_bot/models"
	"github.com/sirupsen/logrus"
)

// FileProfiles keeps user profiles in memory and persists them to a JSON file on Flush.
type FileProfiles struct {
	BatchBuffer     map[string]models.UserProfile `json:"batchBuffer"` // In-memory store of profiles by user ID.
	storageFilePath string                        // File path for persisting profiles.
	dirty           bool                          // Buffer changed since the last flush.
	mu              *sync.RWMutex                 // Protects BatchBuffer from concurrent access
}

// NewFileProfiles creates a FileProfiles and loads the storage file if it exists.
// Arguments:
//   - envStoragePath: file path where profiles are persisted.
//
// Returns a pointer to a FileProfiles or an error if the file exists but cannot be parsed.
func NewFileProfiles(envStoragePath string) (*FileProfiles, error) {
	m := &FileProfiles{
		BatchBuffer:     make(map[string]models.UserProfile),
		storageFilePath: envStoragePath,
		mu:              &sync.RWMutex{},
	}
	if err := m.ReadFileToMemory(); err != nil {
		return nil, err
	}
	return m, nil
}

// ReadFileToMemory reads profiles from the storage file into the in-memory buffer.
// A missing or empty file leaves the buffer empty.
func (m *FileProfiles) ReadFileToMemory() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := os.ReadFile(m.storageFilePath)
	if err != nil {
		if os.IsNotExist(err) {
			logrus.Infof("Storage file %s does not exist, starting with empty buffer", m.storageFilePath)
			return nil
		}
		err = fmt.Errorf("failed to read storage file %s: %w", m.storageFilePath, err)
		logrus.WithError(err).Error("Error reading storage file")
		return err
	}

	if len(data) == 0 {
		logrus.Infof("Storage file %s is empty, starting with empty buffer", m.storageFilePath)
		return nil
	}

	var buffer map[string]models.UserProfile
	if err = json.Unmarshal(data, &buffer); err != nil {
		err = fmt.Errorf("failed to unmarshal storage file %s: %w", m.storageFilePath, err)
		logrus.WithError(err).Error("Error parsing storage file")
		return err
	}
	if buffer == nil {
		buffer = make(map[string]models.UserProfile)
	}

	m.BatchBuffer = buffer
	logrus.Infof("Loaded %d user profiles from %s", len(m.BatchBuffer), m.storageFilePath)
	return nil
}

// Get returns the profile of the user.
func (m *FileProfiles) Get(_ context.Context, userID string) (models.UserProfile, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.BatchBuffer[userID]
	return p, ok, nil
}

// Put stores the profile in the buffer; it reaches the file on the next Flush.
func (m *FileProfiles) Put(_ context.Context, profile models.UserProfile) error {
	if profile.ID == "" {
		return fmt.Errorf("profile without user id")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.BatchBuffer[profile.ID] = profile
	m.dirty = true
	return nil
}

// Flush saves the buffer to the storage file when it changed since the last flush.
func (m *FileProfiles) Flush(_ context.Context) error {
	return m.SaveBatchToFile()
}

// SaveBatchToFile writes the buffer to a temporary file and renames it over the storage file,
// so a crash never leaves a truncated file behind.
func (m *FileProfiles) SaveBatchToFile() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.dirty {
		return nil
	}

	data, err := json.MarshalIndent(m.BatchBuffer, "", "  ")
	if err != nil {
		err = fmt.Errorf("failed to marshal profiles: %w", err)
		logrus.WithError(err).Error("Error preparing storage file")
		return err
	}

	dir := filepath.Dir(m.storageFilePath)
	tmp, err := os.CreateTemp(dir, filepath.Base(m.storageFilePath)+".*.tmp")
	if err != nil {
		err = fmt.Errorf("failed to create temp file in %s: %w", dir, err)
		logrus.WithError(err).Error("Error saving storage file")
		return err
	}
	tmpName := tmp.Name()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		err = fmt.Errorf("failed to write temp file %s: %w", tmpName, err)
		logrus.WithError(err).Error("Error saving storage file")
		return err
	}
	if err = tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file %s: %w", tmpName, err)
	}
	if err = os.Rename(tmpName, m.storageFilePath); err != nil {
		_ = os.Remove(tmpName)
		err = fmt.Errorf("failed to replace storage file %s: %w", m.storageFilePath, err)
		logrus.WithError(err).Error("Error saving storage file")
		return err
	}

	m.dirty = false
	logrus.Infof("Saved %d user profiles to %s", len(m.BatchBuffer), m.storageFilePath)
	return nil
}

// Close flushes the buffer.
func (m *FileProfiles) Close() error {
	return m.SaveBatchToFile()
}
