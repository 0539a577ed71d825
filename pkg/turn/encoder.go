package turn

import (
	"fmt"

	"github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"
)

// textEncoder turns the reduced utterance text into model inputs. Abstracted
// so detector logic is testable without tokenizer artifacts on disk.
type textEncoder interface {
	// encode tokenizes text with special tokens, right-truncated to maxLen.
	// typeIDs follow the tokenizer's segment assignment (all zeros for
	// single-sequence input).
	encode(text string, maxLen int) (ids, mask, typeIDs []int64, err error)
}

// hfEncoder wraps a Hugging Face tokenizer.json loaded from the model cache.
type hfEncoder struct {
	tk *tokenizer.Tokenizer
}

func newHFEncoder(tokenizerFile string) (*hfEncoder, error) {
	tk, err := pretrained.FromFile(tokenizerFile)
	if err != nil {
		return nil, fmt.Errorf("load tokenizer: %w", err)
	}
	return &hfEncoder{tk: tk}, nil
}

func (e *hfEncoder) encode(text string, maxLen int) ([]int64, []int64, []int64, error) {
	encoding, err := e.tk.EncodeSingle(text, true)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("tokenize: %w", err)
	}

	rawIDs := encoding.GetIds()
	rawMask := encoding.GetAttentionMask()
	rawTypes := encoding.GetTypeIds()

	n := len(rawIDs)
	if maxLen > 0 && n > maxLen {
		n = maxLen
	}

	ids := make([]int64, n)
	mask := make([]int64, n)
	typeIDs := make([]int64, n)
	for i := 0; i < n; i++ {
		ids[i] = int64(rawIDs[i])
		if i < len(rawMask) {
			mask[i] = int64(rawMask[i])
		} else {
			mask[i] = 1
		}
		if i < len(rawTypes) {
			typeIDs[i] = int64(rawTypes[i])
		}
	}
	return ids, mask, typeIDs, nil
}

// padTo right-pads ids, mask and typeIDs with zeros up to length. Padding
// positions carry attention mask 0, so the pad id value itself is inert.
func padTo(ids, mask, typeIDs []int64, length int) ([]int64, []int64, []int64) {
	for len(ids) < length {
		ids = append(ids, 0)
		mask = append(mask, 0)
		typeIDs = append(typeIDs, 0)
	}
	return ids, mask, typeIDs
}
