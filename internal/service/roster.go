package service

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrRosterFileInvalid 名册文件内容既不是姓名列表，也不是 {names: [...]}
var ErrRosterFileInvalid = errors.New("名册文件格式无效")

// Roster 员工名册（每次生成报表加载一次，运行期间只读）
//
//   - names: 合法 "Last, First" 姓名集合，班次提取时校验
//   - employees: 换班解析的姓名匹配列表，按文件顺序做子串匹配，先匹配者胜出
type Roster struct {
	names       map[string]struct{}
	employees   []string
	fingerprint string
}

// NewRoster 由姓名集合与员工列表构造名册；employees 为空时回退为排序后的 names
func NewRoster(names, employees []string) *Roster {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		if n = normalizeName(n); n != "" {
			set[n] = struct{}{}
		}
	}

	list := make([]string, 0, len(employees))
	for _, e := range employees {
		if e = normalizeName(e); e != "" {
			list = append(list, e)
		}
	}
	if len(list) == 0 {
		for n := range set {
			list = append(list, n)
		}
		sort.Strings(list)
	}

	sorted := make([]string, 0, len(set))
	for n := range set {
		sorted = append(sorted, n)
	}
	sort.Strings(sorted)
	h := sha256.New()
	h.Write([]byte(strings.Join(sorted, "\n")))
	h.Write([]byte{0})
	h.Write([]byte(strings.Join(list, "\n")))

	return &Roster{names: set, employees: list, fingerprint: hex.EncodeToString(h.Sum(nil))[:16]}
}

// LoadRoster 从 YAML / JSON 文件加载名册，路径为空时对应部分为空
func LoadRoster(rosterPath, employeesPath string) (*Roster, error) {
	names, err := readNameList(rosterPath)
	if err != nil {
		return nil, fmt.Errorf("加载名册失败: %w", err)
	}
	employees, err := readNameList(employeesPath)
	if err != nil {
		return nil, fmt.Errorf("加载员工列表失败: %w", err)
	}
	return NewRoster(names, employees), nil
}

// readNameList 支持两种格式：顶层字符串列表，或 {names: [...]}；
// JSON 是 YAML 的子集，统一用 yaml.v3 解析
func readNameList(path string) ([]string, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var list []string
	if err := yaml.Unmarshal(data, &list); err == nil {
		return list, nil
	}

	var doc struct {
		Names []string `yaml:"names"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrRosterFileInvalid, path, err)
	}
	return doc.Names, nil
}

// Has 判断是否为名册中的合法姓名
func (r *Roster) Has(name string) bool {
	_, ok := r.names[normalizeName(name)]
	return ok
}

// Size 合法姓名数量
func (r *Roster) Size() int { return len(r.names) }

// Employees 返回员工匹配列表副本
func (r *Roster) Employees() []string {
	out := make([]string, len(r.employees))
	copy(out, r.employees)
	return out
}

// MatchEmployee 返回列表中第一个以子串形式出现在 text 中的员工
//
// 已知限制：某姓名是另一姓名的子串时，结果取决于列表顺序。
func (r *Roster) MatchEmployee(text string) (string, bool) {
	for _, e := range r.employees {
		if strings.Contains(text, e) {
			return e, true
		}
	}
	return "", false
}

// Fingerprint 名册内容摘要，用作解析缓存键的一部分
func (r *Roster) Fingerprint() string { return r.fingerprint }

// normalizeName 折叠空白并统一为 "Last, First"
func normalizeName(s string) string {
	last, first, ok := strings.Cut(s, ",")
	if !ok {
		return strings.Join(strings.Fields(s), " ")
	}
	last = strings.Join(strings.Fields(last), " ")
	first = strings.Join(strings.Fields(first), " ")
	if last == "" || first == "" {
		return strings.TrimSpace(last + first)
	}
	return last + ", " + first
}

// displayName "Last, First" → "First Last"
func displayName(name string) string {
	last, first, ok := strings.Cut(name, ",")
	if !ok {
		return strings.TrimSpace(name)
	}
	return strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(last))
}
