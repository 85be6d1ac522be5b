package main

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sk3tch4d/Anikto-Opsis-sub000/config"
	"github.com/sk3tch4d/Anikto-Opsis-sub000/internal/service"
	applogger "github.com/sk3tch4d/Anikto-Opsis-sub000/pkg/logger"
)

// ── rosterctl ──────────────────────────────────────────────
//
// 批处理入口：直接读取本地 .txt / .pdf 排班文档，不依赖数据库与 Redis。
// 命令行参数覆盖配置文件中的对应项。
// ─────────────────────────────────────────────────────────────

// app 命令之间共享的运行期状态，在 PersistentPreRunE 中初始化
type app struct {
	configPath string
	rosterFile string
	employees  string
	dedupMode  string
	workers    int
	logLevel   string

	cfg    *config.Config
	logger *zap.Logger
	svc    service.ReportService
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "rosterctl",
		Short:         "排班文档 → 出勤报表批处理工具",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logger != nil {
				a.logger.Sync()
			}
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&a.configPath, "config", "c", "", "配置文件路径")
	pf.StringVar(&a.rosterFile, "roster", "", "名册文件（覆盖 roster.roster_file）")
	pf.StringVar(&a.employees, "employees", "", "员工列表文件（覆盖 roster.employees_file）")
	pf.StringVar(&a.dedupMode, "dedup-mode", "", "去重模式 slot | person（覆盖 roster.dedup_mode）")
	pf.IntVar(&a.workers, "workers", 0, "并行解析的文档数上限（覆盖 report.workers）")
	pf.StringVar(&a.logLevel, "log-level", "", "日志级别（覆盖 log.level）")

	root.AddCommand(
		newReportCmd(a),
		newHeatmapCmd(a),
		newSwapsCmd(a),
		newCalendarCmd(a),
	)
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("roster") {
		cfg.Roster.RosterFile = a.rosterFile
	}
	if flags.Changed("employees") {
		cfg.Roster.EmployeesFile = a.employees
	}
	if flags.Changed("dedup-mode") {
		cfg.Roster.DedupMode = a.dedupMode
	}
	if flags.Changed("workers") {
		cfg.Report.Workers = a.workers
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = a.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	// 命令行默认输出到终端，日志用 console 格式写 stderr
	cfg.Log.Format = "console"
	logger, err := applogger.NewLogger(&cfg.Log, "rosterctl")
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = logger
	a.svc = service.NewReportService(cfg, service.FileRosterLoader(&cfg.Roster), nil, logger)
	return nil
}

// loadDocuments 展开通配符后按文件名排序加载；任一文件失败即返回错误
func loadDocuments(patterns []string) ([]service.SourceDocument, error) {
	var paths []string
	seen := make(map[string]bool)
	for _, p := range patterns {
		matches, err := filepath.Glob(p)
		if err != nil {
			return nil, fmt.Errorf("无效的文件模式 %q: %w", p, err)
		}
		if len(matches) == 0 {
			matches = []string{p}
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				paths = append(paths, m)
			}
		}
	}
	sort.Strings(paths)

	docs := make([]service.SourceDocument, 0, len(paths))
	for _, p := range paths {
		doc, err := service.LoadDocument(p)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}
