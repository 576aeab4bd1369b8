package reflection

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
)

// Builtins holds the internal functions and constants of a PHP interpreter.
type Builtins struct {
	Functions []string          `json:"functions"`
	Constants map[string]string `json:"constants"`

	index map[string]string
}

const builtinsScript = `$c = [];
foreach (get_defined_constants() as $k => $v) { $c[$k] = is_scalar($v) || $v === null ? var_export($v, true) : gettype($v); }
echo json_encode(['functions' => get_defined_functions()['internal'], 'constants' => $c]);`

// LoadBuiltins asks the php binary for its internal functions and constants.
func LoadBuiltins(ctx context.Context, binary string) (*Builtins, error) {
	path, err := exec.LookPath(binary)
	if err != nil {
		return nil, fmt.Errorf("failed to find php binary %q: %w", binary, err)
	}

	out, err := exec.CommandContext(ctx, path, "-n", "-r", builtinsScript).Output()
	if err != nil {
		return nil, fmt.Errorf("failed to list php builtins: %w", err)
	}

	b, err := ParseBuiltins(out)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// ParseBuiltins decodes the JSON produced by the builtins script.
func ParseBuiltins(data []byte) (*Builtins, error) {
	var b Builtins
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("failed to decode php builtins: %w", err)
	}
	b.index = make(map[string]string, len(b.Functions))
	for _, name := range b.Functions {
		b.index[strings.ToLower(name)] = name
	}
	return &b, nil
}

func (b *Builtins) function(name string) *Function {
	if b.index == nil {
		return nil
	}
	if canonical, ok := b.index[key(name)]; ok {
		return &Function{Name: canonical, Internal: true}
	}
	return nil
}
