package acl

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/jsamuelsen/ecomarket-gateway/internal/adapters/clients"
	"github.com/jsamuelsen/ecomarket-gateway/internal/domain"
)

// Translator converts an external DTO into a domain value.
type Translator[External any, Domain any] func(ext *External) (Domain, error)

// TranslateSlice applies translate to every item and stops at the first error.
func TranslateSlice[E any, D any](items []E, translate Translator[E, D]) ([]D, error) {
	result := make([]D, 0, len(items))

	for i := range items {
		translated, err := translate(&items[i])
		if err != nil {
			return nil, fmt.Errorf("translating item %d: %w", i, err)
		}

		result = append(result, translated)
	}

	return result, nil
}

// decodeInto decodes a classified response body. An empty body, which
// Classify only lets through on 204, and a JSON null are validation errors:
// a value was promised and none arrived.
func decodeInto[T any](resp *clients.Response) (*T, error) {
	if len(bytes.TrimSpace(resp.Body)) == 0 {
		return nil, domain.NewBusinessError(domain.KindValidation, resp.StatusCode, "empty body", resp.Body)
	}

	var result *T
	if err := json.Unmarshal(resp.Body, &result); err != nil {
		return nil, domain.NewBusinessError(domain.KindValidation, resp.StatusCode,
			fmt.Sprintf("decoding response: %v", err), resp.Body)
	}

	if result == nil {
		return nil, domain.NewBusinessError(domain.KindValidation, resp.StatusCode, "null body", resp.Body)
	}

	return result, nil
}

// decodeList decodes a JSON array. An empty body or null means an empty list.
func decodeList[T any](resp *clients.Response) ([]T, error) {
	trimmed := bytes.TrimSpace(resp.Body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []T{}, nil
	}

	items, err := decodeInto[[]T](resp)
	if err != nil {
		return nil, err
	}

	return *items, nil
}

// encodeBody marshals an outgoing DTO.
func encodeBody(v any) ([]byte, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding request body: %w", err)
	}

	return body, nil
}
