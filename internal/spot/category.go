package spot

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// CategoryRule maps one category to the keywords that select it. Rule order
// is significant: the first matching rule wins.
type CategoryRule struct {
	Category Category `yaml:"category"`
	Keywords []string `yaml:"keywords"`
}

// defaultCategoryRules is the built-in keyword table. 历史文化 is checked
// first, so 古镇 names classify as 历史文化 even though 古镇民俗 also lists
// the keyword.
var defaultCategoryRules = []CategoryRule{
	{CategoryHistory, []string{"文化", "历史", "古镇", "遗址", "博物馆", "古迹", "历史遗址", "祠", "寺"}},
	{CategoryFood, []string{"美食", "餐厅", "小吃", "美味", "特色", "美食街"}},
	{CategoryNature, []string{"自然", "风景", "山", "湖", "公园", "景区", "风光", "草原"}},
	{CategoryShopping, []string{"购物", "娱乐", "商场", "购物中心", "夜市", "游乐场"}},
	{CategoryArt, []string{"艺术", "博物馆", "展览", "画廊", "艺术馆", "文化展", "剧院", "川剧"}},
	{CategoryFolk, []string{"古镇", "民俗", "传统", "民间", "风俗"}},
	{CategoryThemePark, []string{"乐园", "游乐场", "主题公园", "游乐设施"}},
	{CategoryResort, []string{"度假", "休闲", "温泉", "度假村", "休闲中心"}},
	{CategoryReligion, []string{"寺庙", "教堂", "宗教", "信仰", "庙会"}},
	{CategoryCityscape, []string{"广场", "天际线", "摩天大楼", "城市公园"}},
	{CategoryWildlife, []string{"动物", "熊猫", "动物园", "基地"}},
}

// Classifier maps free-text spot names to category labels by ordered,
// case-insensitive substring matching. It is total: unmatched names get
// CategoryOther.
type Classifier struct {
	rules []CategoryRule
}

// NewClassifier returns a Classifier using the built-in keyword table.
func NewClassifier() *Classifier {
	return &Classifier{rules: defaultCategoryRules}
}

// LoadClassifier reads a keyword table from a YAML file. The file holds a
// list of {category, keywords} entries whose order defines match priority.
func LoadClassifier(path string) (*Classifier, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "spot: read category file %s", path)
	}

	var rules []CategoryRule
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, eris.Wrapf(err, "spot: parse category file %s", path)
	}
	if len(rules) == 0 {
		return nil, eris.Errorf("spot: category file %s has no rules", path)
	}

	return &Classifier{rules: rules}, nil
}

// Classify returns the first category whose keyword list contains a
// substring of name.
func (c *Classifier) Classify(name string) Category {
	name = strings.ToLower(name)
	for _, rule := range c.rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(name, strings.ToLower(kw)) {
				return rule.Category
			}
		}
	}
	return CategoryOther
}
