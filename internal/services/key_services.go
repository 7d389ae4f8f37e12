package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"

	"github.com/jabsona1985/digital-game-hub/internal/model"
	"github.com/jabsona1985/digital-game-hub/internal/repository"
)

// keyAlphabet drops lookalike characters (0/O, 1/I) so keys survive
// being read aloud or retyped.
const keyAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const maxKeyBatch = 500

type KeyService struct {
	Keys  *repository.KeyRepository
	Games *repository.GameRepository
}

func NewKeyService(k *repository.KeyRepository, g *repository.GameRepository) *KeyService {
	return &KeyService{Keys: k, Games: g}
}

// GenerateKeyValue mints a key in the XXXXX-XXXXX-XXXXX format.
func GenerateKeyValue() (string, error) {
	buf := make([]byte, 15)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	var sb strings.Builder
	for i, b := range buf {
		if i > 0 && i%5 == 0 {
			sb.WriteByte('-')
		}
		sb.WriteByte(keyAlphabet[int(b)%len(keyAlphabet)])
	}
	return sb.String(), nil
}

// AddKeys inserts provided key strings and/or generates count fresh ones
// for the game. Returns how many rows actually landed (duplicates within
// the game are skipped by the store).
func (s *KeyService) AddKeys(ctx context.Context, gameID string, values []string, generate int) (int, error) {
	if _, err := s.Games.GetByID(ctx, gameID, true); err != nil {
		return 0, err
	}
	if generate < 0 || generate > maxKeyBatch {
		return 0, fmt.Errorf("generate count must be between 0 and %d", maxKeyBatch)
	}

	batch := make([]string, 0, len(values)+generate)
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		batch = append(batch, v)
	}
	for i := 0; i < generate; i++ {
		v, err := GenerateKeyValue()
		if err != nil {
			return 0, err
		}
		batch = append(batch, v)
	}
	if len(batch) == 0 {
		return 0, errors.New("no keys to add")
	}
	if len(batch) > maxKeyBatch {
		return 0, fmt.Errorf("at most %d keys per request", maxKeyBatch)
	}

	return s.Keys.InsertKeys(ctx, gameID, batch)
}

func (s *KeyService) List(ctx context.Context, gameID string, unsoldOnly bool) ([]model.GameKey, error) {
	if gameID != "" {
		return s.Keys.ListByGame(ctx, gameID, unsoldOnly)
	}
	return s.Keys.ListAll(ctx, unsoldOnly)
}

func (s *KeyService) Delete(ctx context.Context, keyID string) error {
	return s.Keys.DeleteUnsold(ctx, keyID)
}

func (s *KeyService) Stock(ctx context.Context) ([]model.KeyStock, error) {
	return s.Keys.StockCounts(ctx)
}
