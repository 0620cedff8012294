package cypher

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/soundprediction/footballkg/pkg/schema"
	"github.com/soundprediction/footballkg/pkg/types"
)

var (
	// ErrEmptyQuery is returned when a completion holds no statement.
	ErrEmptyQuery = types.ErrEmptyQuery
	// ErrWriteClause is returned for statements that could modify the graph.
	ErrWriteClause = errors.New("query is not read-only")
	// ErrMultipleStatements is returned when more than one statement is given.
	ErrMultipleStatements = errors.New("query contains more than one statement")
	// ErrUnknownLabel is returned for node labels absent from the schema.
	ErrUnknownLabel = errors.New("query references a label not in the schema")
	// ErrUnknownRelationship is returned for relationship types absent from the schema.
	ErrUnknownRelationship = errors.New("query references a relationship type not in the schema")
	// ErrUnknownProperty is returned for property keys absent from the schema.
	ErrUnknownProperty = errors.New("query references a property not in the schema")
)

var (
	writeClause   = regexp.MustCompile(`(?i)(?:^|[^\w.$])(CREATE|MERGE|SET|DELETE|DETACH|REMOVE|DROP|FOREACH|LOAD\s+CSV|GRANT|DENY|REVOKE|ALTER)\b`)
	procedureCall = regexp.MustCompile(`(?i)\bCALL\s+([A-Za-z_][\w.]*)`)
	quotedName    = regexp.MustCompile("`[^`]*`")
	propertyRef   = regexp.MustCompile("(?:^|[^\\w.$`])([A-Za-z_]\\w*)\\s*\\.\\s*([A-Za-z_]\\w*|`[^`]+`)")
)

// readProcedures are the procedures a generated query may CALL.
var readProcedures = map[string]bool{
	"db.index.vector.querynodes": true,
	"db.labels":                  true,
	"db.relationshiptypes":       true,
	"db.propertykeys":            true,
}

// patternKeywords precede a node pattern rather than a function call.
var patternKeywords = map[string]bool{
	"MATCH": true, "WHERE": true, "AND": true, "OR": true, "XOR": true,
	"NOT": true, "RETURN": true, "WITH": true, "IN": true, "EXISTS": true,
}

// Guard checks generated queries against the schema before execution.
type Guard struct {
	schema *schema.Schema
}

// NewGuard creates a Guard for s. A nil or empty schema disables the
// grounding checks; the read-only checks always apply.
func NewGuard(s *schema.Schema) *Guard {
	return &Guard{schema: s}
}

// Check returns nil when query is a single read-only statement that only
// names labels, relationship types and properties present in the schema.
func (g *Guard) Check(query string) error {
	if strings.TrimSpace(query) == "" {
		return ErrEmptyQuery
	}

	stripped := stripLiterals(query)
	bare := quotedName.ReplaceAllString(stripped, "_q")

	if strings.Contains(strings.TrimRight(bare, "; \t\r\n"), ";") {
		return ErrMultipleStatements
	}
	if m := writeClause.FindStringSubmatch(bare); m != nil {
		return fmt.Errorf("%w: %s clause", ErrWriteClause, strings.ToUpper(strings.Join(strings.Fields(m[1]), " ")))
	}
	for _, m := range procedureCall.FindAllStringSubmatch(bare, -1) {
		if !readProcedures[strings.ToLower(m[1])] {
			return fmt.Errorf("%w: procedure %s", ErrWriteClause, m[1])
		}
	}

	if g.schema == nil || g.schema.Empty() {
		return nil
	}
	return g.checkGrounding(stripped)
}

// checkGrounding walks the statement tracking bracket nesting so that a
// colon can be read as a label, a relationship type or a map key.
func (g *Guard) checkGrounding(s string) error {
	// Bracket kinds: '(' node pattern, 'f' function call, 'r' relationship
	// pattern, 'l' list, 'm' pattern property map, '{' other map or block.
	var stack []byte
	vars := make(map[string]bool)
	top := func() byte {
		if len(stack) == 0 {
			return 0
		}
		return stack[len(stack)-1]
	}

	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '`':
			if end := strings.IndexByte(s[i+1:], '`'); end >= 0 {
				i += end + 1
			}
		case '(':
			kind := byte('(')
			if isFunctionCall(s, i) {
				kind = 'f'
			} else if name, ok := boundName(s, i+1); ok {
				vars[name] = true
			}
			stack = append(stack, kind)
		case '[':
			kind := byte('l')
			if p := prevNonSpace(s, i); p >= 0 && (s[p] == '-' || s[p] == '<') {
				kind = 'r'
				if name, ok := boundName(s, i+1); ok {
					vars[name] = true
				}
			}
			stack = append(stack, kind)
		case '{':
			kind := byte('{')
			if t := top(); t == '(' || t == 'r' {
				kind = 'm'
			}
			stack = append(stack, kind)
		case ')', ']', '}':
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case ':':
			var err error
			switch t := top(); {
			case t == 'm':
				err = g.checkMapKey(s, i)
			case t == '{' && isMapKey(s, i):
				// literal map, keys are free-form
			case t == 'r':
				err = g.checkNames(s, i, ErrUnknownRelationship, g.schema.HasRelationship)
			default:
				err = g.checkNames(s, i, ErrUnknownLabel, g.schema.HasLabel)
			}
			if err != nil {
				return err
			}
		}
	}

	for _, m := range propertyRef.FindAllStringSubmatchIndex(s, -1) {
		variable := s[m[2]:m[3]]
		prop := strings.Trim(s[m[4]:m[5]], "`")
		if !vars[variable] {
			continue
		}
		// namespaced function such as point.distance(
		if next := nextNonSpace(s, m[5]); next >= 0 && s[next] == '(' {
			continue
		}
		if !g.schema.HasProperty(prop) {
			return fmt.Errorf("%w: %s.%s", ErrUnknownProperty, variable, prop)
		}
	}
	return nil
}

// checkNames validates the names of a label or relationship type
// expression starting at the colon at pos, e.g. :A|B or :A:B.
func (g *Guard) checkNames(s string, pos int, sentinel error, known func(string) bool) error {
	i := pos + 1
	for {
		i = skipSpace(s, i)
		for i < len(s) && s[i] == '!' {
			i = skipSpace(s, i+1)
		}
		name, next := readName(s, i)
		if name == "" {
			return nil
		}
		if !known(name) {
			return fmt.Errorf("%w: %s", sentinel, name)
		}
		i = skipSpace(s, next)
		if i >= len(s) || !strings.ContainsRune(":|&", rune(s[i])) {
			return nil
		}
		i++
	}
}

func (g *Guard) checkMapKey(s string, pos int) error {
	end := prevNonSpace(s, pos)
	if end < 0 {
		return nil
	}
	start := end
	if s[end] == '`' {
		start = strings.LastIndexByte(s[:end], '`')
		if start < 0 {
			return nil
		}
	} else {
		for start > 0 && isIdentByte(s[start-1]) {
			start--
		}
	}
	key := strings.Trim(s[start:end+1], "`")
	if key == "" || g.schema.HasProperty(key) {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrUnknownProperty, key)
}

// isMapKey reports whether the colon at pos follows a key that opens a map
// entry, i.e. the key is preceded by '{' or ','.
func isMapKey(s string, pos int) bool {
	end := prevNonSpace(s, pos)
	if end < 0 || !isIdentByte(s[end]) {
		return false
	}
	start := end
	for start > 0 && isIdentByte(s[start-1]) {
		start--
	}
	p := prevNonSpace(s, start)
	return p >= 0 && (s[p] == '{' || s[p] == ',')
}

// isFunctionCall reports whether the '(' at pos directly follows a name
// that is not a clause keyword.
func isFunctionCall(s string, pos int) bool {
	if pos == 0 || !(isIdentByte(s[pos-1]) || s[pos-1] == '`') {
		return false
	}
	start := pos - 1
	for start > 0 && (isIdentByte(s[start-1]) || s[start-1] == '.') {
		start--
	}
	return !patternKeywords[strings.ToUpper(s[start:pos])]
}

// boundName returns the variable declared at the start of a pattern, as in
// (p:PLAYER) or [r:PLAYS_FOR].
func boundName(s string, pos int) (string, bool) {
	i := skipSpace(s, pos)
	name, next := readName(s, i)
	if name == "" {
		return "", false
	}
	next = skipSpace(s, next)
	if next < len(s) && strings.ContainsRune(":)]{*", rune(s[next])) {
		return name, true
	}
	return "", false
}

func readName(s string, i int) (string, int) {
	if i >= len(s) {
		return "", i
	}
	if s[i] == '`' {
		end := strings.IndexByte(s[i+1:], '`')
		if end < 0 {
			return "", i
		}
		return s[i+1 : i+1+end], i + end + 2
	}
	start := i
	for i < len(s) && isIdentByte(s[i]) {
		i++
	}
	return s[start:i], i
}

func isIdentByte(c byte) bool {
	return c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= 0x80
}

func skipSpace(s string, i int) int {
	for i < len(s) && (s[i] == ' ' || s[i] == '\t' || s[i] == '\n' || s[i] == '\r') {
		i++
	}
	return i
}

func prevNonSpace(s string, pos int) int {
	for i := pos - 1; i >= 0; i-- {
		if s[i] != ' ' && s[i] != '\t' && s[i] != '\n' && s[i] != '\r' {
			return i
		}
	}
	return -1
}

func nextNonSpace(s string, pos int) int {
	i := skipSpace(s, pos)
	if i >= len(s) {
		return -1
	}
	return i
}

// stripLiterals empties string literals and removes comments, leaving
// quoted names intact.
func stripLiterals(q string) string {
	var b strings.Builder
	b.Grow(len(q))
	for i := 0; i < len(q); i++ {
		c := q[i]
		switch {
		case c == '\'' || c == '"':
			b.WriteByte(c)
			for i++; i < len(q) && q[i] != c; i++ {
				if q[i] == '\\' {
					i++
				}
			}
			b.WriteByte(c)
		case c == '`':
			end := strings.IndexByte(q[i+1:], '`')
			if end < 0 {
				b.WriteString(q[i:])
				return b.String()
			}
			b.WriteString(q[i : i+end+2])
			i += end + 1
		case c == '/' && i+1 < len(q) && q[i+1] == '/':
			for i < len(q) && q[i] != '\n' {
				i++
			}
			b.WriteByte('\n')
		case c == '/' && i+1 < len(q) && q[i+1] == '*':
			end := strings.Index(q[i+2:], "*/")
			if end < 0 {
				return b.String()
			}
			i += end + 3
			b.WriteByte(' ')
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
