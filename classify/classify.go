// Package classify assigns a spending category to a merchant label by ordered
// keyword lookup.
package classify

import "strings"

// DefaultCategory is returned when no keyword matches.
const DefaultCategory = "其他"

// Rule maps one category to its keyword substrings. Rule order is the match
// precedence: the first category with a matching keyword wins.
type Rule struct {
	Name     string   `mapstructure:"name"`
	Keywords []string `mapstructure:"keywords"`
}

// Classifier is a deterministic, total merchant → category function. It holds
// no state beyond its rule table, so one instance serves ingestion-time
// tagging and offline re-classification identically.
type Classifier struct {
	rules []Rule
}

// New builds a Classifier from an ordered rule table. The table is copied so
// later mutation of the argument cannot change match results.
func New(rules []Rule) *Classifier {
	copied := make([]Rule, len(rules))
	copy(copied, rules)
	return &Classifier{rules: copied}
}

// Classify returns the first category whose keyword list contains a
// case-insensitive substring of the merchant label, or DefaultCategory.
func (c *Classifier) Classify(merchant string) string {
	merchantLower := strings.ToLower(merchant)

	for _, rule := range c.rules {
		for _, keyword := range rule.Keywords {
			if keyword == "" {
				continue
			}
			if strings.Contains(merchantLower, strings.ToLower(keyword)) {
				return rule.Name
			}
		}
	}

	return DefaultCategory
}

// DefaultRules is the statement-template category table the binary ships
// with; the config file can override it wholesale.
func DefaultRules() []Rule {
	return []Rule{
		{Name: "餐饮", Keywords: []string{"餐厅", "美食", "快餐", "咖啡", "茶饮", "火锅", "烤肉", "料理", "饭", "菜", "麦当劳", "肯德基", "星巴克"}},
		{Name: "购物", Keywords: []string{"超市", "商场", "购物", "百货", "服装", "鞋包", "化妆品", "数码", "电器", "淘宝", "天猫", "京东"}},
		{Name: "出行", Keywords: []string{"地铁", "公交", "出租车", "滴滴", "加油", "航空", "机场"}},
		{Name: "高铁", Keywords: []string{"高铁", "火车", "铁路", "中铁网络", "中国铁路"}},
		{Name: "娱乐", Keywords: []string{"电影", "游戏", "KTV", "酒吧", "旅游", "景点", "酒店", "度假", "游乐场"}},
		{Name: "医疗", Keywords: []string{"医院", "药房", "体检", "药品", "诊所"}},
		{Name: "购书", Keywords: []string{"书籍", "书店", "图书"}},
		{Name: "知识", Keywords: []string{"培训", "在线课程", "学习", "教育", "学校", "先知书店", "流利说"}},
		{Name: "生活缴费", Keywords: []string{"水电煤", "物业费", "宽带", "手机费", "燃气", "供暖"}},
	}
}
