package skin

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// VerdictKind 推薦結果種類
type VerdictKind int

const (
	// VerdictOther 非 Yes/No 的值，既不推薦也不避免
	VerdictOther VerdictKind = iota
	VerdictYes
	VerdictNo
)

const (
	verdictYesText = "Yes"
	verdictNoText  = "No"
)

// Verdict 單一成分的推薦結果，Raw 保留上游原始值
type Verdict struct {
	Kind VerdictKind
	Raw  string
}

// ParseVerdict 將上游字串轉為 Verdict，只有完全等於 "Yes"/"No" 才會被分類
func ParseVerdict(raw string) Verdict {
	switch raw {
	case verdictYesText:
		return Verdict{Kind: VerdictYes, Raw: raw}
	case verdictNoText:
		return Verdict{Kind: VerdictNo, Raw: raw}
	default:
		return Verdict{Kind: VerdictOther, Raw: raw}
	}
}

// Yes 推薦
func Yes() Verdict { return ParseVerdict(verdictYesText) }

// No 避免
func No() Verdict { return ParseVerdict(verdictNoText) }

func (v Verdict) String() string {
	return v.Raw
}

// MarshalJSON 以原始字串輸出
func (v Verdict) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Raw)
}

// UnmarshalJSON 非字串的值（數字、布林、null）保留其 JSON 文字並視為 VerdictOther
func (v *Verdict) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*v = ParseVerdict(s)
		return nil
	}
	*v = Verdict{Kind: VerdictOther, Raw: strings.TrimSpace(string(data))}
	return nil
}

// VerdictEntry 成分與推薦結果
type VerdictEntry struct {
	Ingredient string
	Verdict    Verdict
}

// VerdictMap 成分 → 推薦結果，保留上游回傳順序。建立後不可變更
type VerdictMap struct {
	entries []VerdictEntry
}

// NewVerdictMap 建立 VerdictMap，重複的成分以最後一筆為準但保留第一次出現的位置
func NewVerdictMap(entries ...VerdictEntry) VerdictMap {
	m := VerdictMap{}
	index := make(map[string]int, len(entries))
	for _, e := range entries {
		if i, ok := index[e.Ingredient]; ok {
			m.entries[i].Verdict = e.Verdict
			continue
		}
		index[e.Ingredient] = len(m.entries)
		m.entries = append(m.entries, e)
	}
	return m
}

// VerdictsFromStrings 以成對字串建立 VerdictMap：ingredient, verdict, ingredient, verdict...
func VerdictsFromStrings(pairs ...string) VerdictMap {
	if len(pairs)%2 != 0 {
		panic("skin: VerdictsFromStrings needs ingredient/verdict pairs")
	}
	entries := make([]VerdictEntry, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		entries = append(entries, VerdictEntry{Ingredient: pairs[i], Verdict: ParseVerdict(pairs[i+1])})
	}
	return NewVerdictMap(entries...)
}

// Len 成分數量
func (m VerdictMap) Len() int {
	return len(m.entries)
}

// IsEmpty 是否沒有任何成分
func (m VerdictMap) IsEmpty() bool {
	return len(m.entries) == 0
}

// Entries 回傳條目副本
func (m VerdictMap) Entries() []VerdictEntry {
	return append([]VerdictEntry(nil), m.entries...)
}

// Get 取得成分的推薦結果
func (m VerdictMap) Get(ingredient string) (Verdict, bool) {
	for _, e := range m.entries {
		if e.Ingredient == ingredient {
			return e.Verdict, true
		}
	}
	return Verdict{}, false
}

// MarshalJSON 依原順序輸出 JSON 物件
func (m VerdictMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range m.entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.Ingredient)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(e.Verdict)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON 逐 token 解析以保留物件鍵的順序
func (m *VerdictMap) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("verdict map: %w", err)
	}
	if tok == nil {
		*m = VerdictMap{}
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("verdict map: expected object, got %v", tok)
	}

	var entries []VerdictEntry
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("verdict map: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("verdict map: unexpected key %v", keyTok)
		}
		var v Verdict
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("verdict map: value of %q: %w", key, err)
		}
		entries = append(entries, VerdictEntry{Ingredient: key, Verdict: v})
	}
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("verdict map: %w", err)
	}

	*m = NewVerdictMap(entries...)
	return nil
}

// Presence 商品是否含有某成分。上游可能傳 1/0、"Yes"/"No"、true/false 或成分陣列
type Presence bool

// ParsePresence 解析單一 JSON 值；無法辨識的值視為不存在
func ParsePresence(data []byte) Presence {
	raw := strings.TrimSpace(string(data))
	switch raw {
	case "1", "true", `"Yes"`, `"1"`:
		return true
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		if f, err := n.Float64(); err == nil && f == 1 {
			return true
		}
	}
	return false
}

// UnmarshalJSON 實現 json.Unmarshaler
func (p *Presence) UnmarshalJSON(data []byte) error {
	*p = ParsePresence(data)
	return nil
}

// IngredientFlags 成分 → 是否存在
type IngredientFlags map[string]Presence

// UnmarshalJSON 同時接受物件形式 {"niacinamide":1} 與陣列形式 ["niacinamide"]
func (f *IngredientFlags) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*f = nil
		return nil
	}
	if trimmed[0] == '[' {
		var ids []string
		if err := json.Unmarshal(trimmed, &ids); err != nil {
			return fmt.Errorf("ingredient flags: %w", err)
		}
		out := make(IngredientFlags, len(ids))
		for _, id := range ids {
			out[id] = true
		}
		*f = out
		return nil
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return fmt.Errorf("ingredient flags: %w", err)
	}
	out := make(IngredientFlags, len(raw))
	for id, v := range raw {
		out[id] = ParsePresence(v)
	}
	*f = out
	return nil
}

// Has 成分是否存在且為真值
func (f IngredientFlags) Has(id string) bool {
	return bool(f[id])
}
