package datasource

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/seenimoa/futuresagent/pkg/models"
)

// builtinSymbols lists every supported variety per exchange.
var builtinSymbols = map[models.Exchange][][2]string{
	models.SHFE: {
		{"pb", "铅"}, {"rb", "螺纹钢"}, {"cu", "铜"}, {"al", "铝"}, {"zn", "锌"},
		{"ni", "镍"}, {"sn", "锡"}, {"au", "黄金"}, {"ag", "白银"}, {"hc", "热轧卷板"},
		{"fu", "燃料油"}, {"bu", "石油沥青"}, {"ru", "天然橡胶"}, {"br", "合成橡胶"},
		{"sp", "纸浆"}, {"wr", "线材"}, {"ss", "不锈钢"}, {"ao", "氧化铝"},
	},
	models.INE: {
		{"sc", "原油"}, {"nr", "20号胶"}, {"lu", "低硫燃料油"}, {"bc", "国际铜"},
	},
	models.DCE: {
		{"m", "豆粕"}, {"y", "豆油"}, {"a", "豆一"}, {"b", "豆二"}, {"p", "棕榈油"},
		{"c", "玉米"}, {"cs", "玉米淀粉"}, {"l", "聚乙烯"}, {"v", "PVC"}, {"pp", "聚丙烯"},
		{"j", "焦炭"}, {"jm", "焦煤"}, {"i", "铁矿石"}, {"fb", "纤维板"}, {"bb", "胶合板"},
		{"eg", "乙二醇"}, {"rr", "粳米"}, {"eb", "苯乙烯"}, {"pg", "液化石油气"},
		{"lh", "生猪"}, {"lg", "原木"},
	},
	models.CZCE: {
		{"sr", "白砂糖"}, {"cf", "棉花"}, {"ta", "PTA"}, {"oi", "菜籽油"}, {"rm", "菜粕"},
		{"ma", "甲醇"}, {"fg", "玻璃"}, {"zc", "动力煤"}, {"sf", "硅铁"}, {"sm", "锰硅"},
		{"cy", "棉纱"}, {"ap", "苹果"}, {"cj", "红枣"}, {"ur", "尿素"}, {"sa", "纯碱"},
		{"pf", "短纤"}, {"pk", "花生"}, {"px", "对二甲苯"}, {"sh", "烧碱"}, {"pr", "瓶片"},
	},
	models.GFEX: {
		{"si", "工业硅"}, {"lc", "碳酸锂"}, {"ps", "多晶硅"},
	},
	models.CFFEX: {
		{"if", "沪深300指数"}, {"ih", "上证50指数"}, {"ic", "中证500指数"}, {"im", "中证1000指数"},
		{"ts", "2年期国债"}, {"tf", "5年期国债"}, {"t", "10年期国债"}, {"tl", "30年期国债"},
	},
}

var (
	catalogMu sync.RWMutex
	catalog   = buildCatalog()
)

func buildCatalog() map[string]models.Symbol {
	m := make(map[string]models.Symbol)
	for ex, list := range builtinSymbols {
		for _, pair := range list {
			m[pair[0]] = models.Symbol{Code: pair[0], Name: pair[1], Exchange: ex}
		}
	}
	return m
}

// NormalizeCode lower-cases and trims a variety code.
func NormalizeCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

// Lookup resolves a variety code. Unknown codes return an error wrapping
// ErrUnsupportedSymbol; callers validate with it before any network I/O.
func Lookup(code string) (models.Symbol, error) {
	c := NormalizeCode(code)
	catalogMu.RLock()
	sym, ok := catalog[c]
	catalogMu.RUnlock()
	if !ok {
		return models.Symbol{}, fmt.Errorf("%w: %q (run `futuresagent symbols` for the list)", ErrUnsupportedSymbol, code)
	}
	return sym, nil
}

// Symbols returns the catalog sorted by code.
func Symbols() []models.Symbol {
	catalogMu.RLock()
	out := make([]models.Symbol, 0, len(catalog))
	for _, s := range catalog {
		out = append(out, s)
	}
	catalogMu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// SymbolsByExchange returns the symbols of one exchange sorted by code.
func SymbolsByExchange(ex models.Exchange) []models.Symbol {
	var out []models.Symbol
	for _, s := range Symbols() {
		if s.Exchange == ex {
			out = append(out, s)
		}
	}
	return out
}

// SinaCode returns the Sina continuous main-contract code, e.g. "RB0".
func SinaCode(sym models.Symbol) string {
	return strings.ToUpper(sym.Code) + "0"
}

// catalogFile is the on-disk format for extra symbols.
type catalogFile struct {
	Symbols []models.Symbol `yaml:"symbols"`
}

// LoadCatalogFile merges symbols from a YAML file into the catalog.
// Entries override built-ins with the same code.
//
//	symbols:
//	  - code: ec
//	    name: 集运指数(欧线)
//	    exchange: INE
func LoadCatalogFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read symbol catalog: %w", err)
	}
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return 0, fmt.Errorf("parse symbol catalog %s: %w", path, err)
	}

	valid := make(map[models.Exchange]bool)
	for _, ex := range models.Exchanges() {
		valid[ex] = true
	}

	catalogMu.Lock()
	defer catalogMu.Unlock()
	for i, s := range f.Symbols {
		s.Code = NormalizeCode(s.Code)
		s.Exchange = models.Exchange(strings.ToUpper(string(s.Exchange)))
		if s.Code == "" || s.Name == "" {
			return i, fmt.Errorf("symbol catalog %s: entry %d needs code and name", path, i)
		}
		if !valid[s.Exchange] {
			return i, fmt.Errorf("symbol catalog %s: entry %q has unknown exchange %q", path, s.Code, s.Exchange)
		}
		catalog[s.Code] = s
	}
	return len(f.Symbols), nil
}

// resetCatalog restores the built-in catalog.
func resetCatalog() {
	catalogMu.Lock()
	catalog = buildCatalog()
	catalogMu.Unlock()
}
