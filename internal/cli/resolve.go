package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/andy/docket/internal/domain"
)

// resolveClient finds a client by ID or name
func resolveClient(ctx context.Context, idOrName string) (*domain.Client, error) {
	client, err := appInstance.ClientRepo.GetByID(ctx, idOrName)
	if err == nil {
		return client, nil
	}
	if !errors.Is(err, domain.ErrValidation) {
		return nil, err
	}

	client, err = appInstance.ClientRepo.GetByName(ctx, idOrName)
	if err == nil || !errors.Is(err, domain.ErrValidation) {
		return client, err
	}

	// Short IDs as printed by "clients list"
	clients, listErr := appInstance.ClientRepo.List(ctx, true)
	if listErr != nil {
		return nil, listErr
	}
	for _, c := range clients {
		if isIDPrefix(c.ID, idOrName) {
			return c, nil
		}
	}
	return nil, err
}

// resolveMatter finds a matter by ID, by name, or by "Client / Matter"
func resolveMatter(ctx context.Context, idOrName string) (*domain.Matter, error) {
	matter, err := appInstance.MatterRepo.GetByID(ctx, idOrName)
	if err == nil {
		return matter, nil
	}
	if !errors.Is(err, domain.ErrValidation) {
		return nil, err
	}

	matters, err := appInstance.MatterRepo.List(ctx, "")
	if err != nil {
		return nil, err
	}

	want := normalize(idOrName)
	var found []*domain.Matter
	for _, m := range matters {
		if normalize(m.Name) == want || normalize(m.Label()) == want ||
			m.MatterNumber == idOrName || isIDPrefix(m.ID, idOrName) {
			found = append(found, m)
		}
	}

	switch len(found) {
	case 0:
		return nil, fmt.Errorf("%w: no matter matches %q", domain.ErrValidation, idOrName)
	case 1:
		return found[0], nil
	default:
		return nil, fmt.Errorf("%w: %q matches %d matters; use \"Client / Matter\" or the ID", domain.ErrValidation, idOrName, len(found))
	}
}

func normalize(s string) string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return r == ' ' || r == '/'
	})
	return strings.Join(fields, "/")
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func isIDPrefix(id, prefix string) bool {
	return len(prefix) >= 8 && strings.HasPrefix(id, prefix)
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
