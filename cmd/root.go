package cmd

import (
	"bytes"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ryzhao/cmbill/classify"
	"github.com/ryzhao/cmbill/extractor/cmb"
	"github.com/ryzhao/cmbill/mail"
)

// Embedded default configuration. Everything tunable about the heuristics
// lives here: the category keyword table (in match-precedence order), the
// non-spend markers, the plausible total range, and the bill-mail keywords.
const defaultConfigYAML = `
db: cmb_cc_bills.db
extract:
  total_min: 10
  total_max: 50000
  skip_markers: [积分, 积分值, 查询]
mail:
  sender_keywords: [creditcard@cmbchina.com, 招商银行, 信用卡]
  subject_keywords: [信用卡, 账单, CMB, credit, 账单日, 还款日]
report:
  bar_width: 50
categories:
  - name: 餐饮
    keywords: [餐厅, 美食, 快餐, 咖啡, 茶饮, 火锅, 烤肉, 料理, 饭, 菜, 麦当劳, 肯德基, 星巴克]
  - name: 购物
    keywords: [超市, 商场, 购物, 百货, 服装, 鞋包, 化妆品, 数码, 电器, 淘宝, 天猫, 京东]
  - name: 出行
    keywords: [地铁, 公交, 出租车, 滴滴, 加油, 航空, 机场]
  - name: 高铁
    keywords: [高铁, 火车, 铁路, 中铁网络, 中国铁路]
  - name: 娱乐
    keywords: [电影, 游戏, KTV, 酒吧, 旅游, 景点, 酒店, 度假, 游乐场]
  - name: 医疗
    keywords: [医院, 药房, 体检, 药品, 诊所]
  - name: 购书
    keywords: [书籍, 书店, 图书]
  - name: 知识
    keywords: [培训, 在线课程, 学习, 教育, 学校, 先知书店, 流利说]
  - name: 生活缴费
    keywords: [水电煤, 物业费, 宽带, 手机费, 燃气, 供暖]
`

var (
	cfgFile string
	verbose bool
	logger  *log.Logger

	rootCmd = &cobra.Command{
		Use:   "cmbill [filename]",
		Short: "Extract and analyze credit-card statement mails",
		Long: `cmbill extracts bill fields and itemized transactions out of credit-card
statement mails (.eml), classifies spending by category and builds monthly
reports from the accumulated data.`,
		Args: cobra.ArbitraryArgs,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) == 1 {
				viper.Set("target", args[0])
				runExtract(extractCmd, []string{})
				return
			}
			cmd.Help()
		},
	}
)

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig, initLogging)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default is ./.cmbill.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

func initLogging() {
	logger = log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "cmbill",
	})
	if verbose {
		logger.SetLevel(log.DebugLevel)
	}
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(".")
		viper.AddConfigPath(home)
		viper.SetConfigName(".cmbill")
		viper.SetConfigType("yaml")
	}

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// No config file found, use the embedded defaults.
			viper.SetConfigType("yaml")
			if err := viper.ReadConfig(bytes.NewBufferString(defaultConfigYAML)); err != nil {
				fmt.Printf("Error loading embedded configuration: %v\n", err)
				os.Exit(1)
			}
		} else {
			fmt.Printf("Error reading config file: %v\n", err)
			os.Exit(1)
		}
	}
}

// extractOptions builds the heuristic tunables from config.
func extractOptions() cmb.Options {
	opts := cmb.DefaultOptions()
	if viper.IsSet("extract.total_min") {
		opts.TotalMin = decimal.NewFromFloat(viper.GetFloat64("extract.total_min"))
	}
	if viper.IsSet("extract.total_max") {
		opts.TotalMax = decimal.NewFromFloat(viper.GetFloat64("extract.total_max"))
	}
	if markers := viper.GetStringSlice("extract.skip_markers"); len(markers) > 0 {
		opts.SkipMarkers = markers
	}
	return opts
}

// categoryClassifier builds the classifier from the configured keyword table,
// falling back to the built-in table when the config has none.
func categoryClassifier() *classify.Classifier {
	var rules []classify.Rule
	if err := viper.UnmarshalKey("categories", &rules); err != nil || len(rules) == 0 {
		rules = classify.DefaultRules()
	}
	return classify.New(rules)
}

func mailMatcher() mail.Matcher {
	return mail.Matcher{
		SenderKeywords:  viper.GetStringSlice("mail.sender_keywords"),
		SubjectKeywords: viper.GetStringSlice("mail.subject_keywords"),
	}
}
