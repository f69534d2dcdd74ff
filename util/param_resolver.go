package util

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/oliveagle/jsonpath"
	"github.com/psahay/rampflow/model"
)

var tokenPattern = regexp.MustCompile("{(.*?)}")

// ResolveTemplate substitutes {$.path} tokens in a transaction template's
// string fields with values looked up from accumulated step data, so a
// later step can reference an earlier step's output (for example a minted
// balance feeding a swap amount). Unresolvable tokens resolve to the empty
// value, matching the lenient lookup of the quote collaborator.
func ResolveTemplate(stepData map[string]any, tpl model.TxTemplate) model.TxTemplate {
	resolved := tpl
	resolved.To = resolveString(stepData, tpl.To)
	resolved.Data = resolveString(stepData, tpl.Data)
	resolved.Value = resolveString(stepData, tpl.Value)
	return resolved
}

func resolveString(stepData map[string]any, value string) string {
	tokens := tokenPattern.FindAllString(value, -1)
	if len(tokens) == 0 {
		return value
	}
	newStr := value
	for _, token := range tokens {
		tmatch := strings.ReplaceAll(token, "{", "")
		tmatch = strings.ReplaceAll(tmatch, "}", "")
		if !strings.HasPrefix(tmatch, "$") {
			continue
		}
		lookup, _ := jsonpath.JsonPathLookup(stepData, tmatch)
		newStr = strings.ReplaceAll(newStr, token, fmt.Sprintf("%v", lookup))
	}
	return newStr
}
