package patch

import (
	"fmt"

	"github.com/tidwall/sjson"
)

// Report serializes the outcome of a resolution as JSON suitable for
// returning as tool output: the title, per-buffer group counts, and any
// per-edit errors.
func Report(rp *ResolvedPatch) (string, error) {
	out := "{}"
	var err error

	if out, err = sjson.Set(out, "title", rp.Title); err != nil {
		return "", err
	}
	if out, err = sjson.Set(out, "buffers", len(rp.EditGroups)); err != nil {
		return "", err
	}
	if out, err = sjson.Set(out, "groups", rp.GroupCount()); err != nil {
		return "", err
	}
	for i, re := range rp.Errors {
		prefix := fmt.Sprintf("errors.%d", i)
		if out, err = sjson.Set(out, prefix+".edit_ix", re.EditIndex); err != nil {
			return "", err
		}
		if out, err = sjson.Set(out, prefix+".message", re.Message); err != nil {
			return "", err
		}
	}
	return out, nil
}
