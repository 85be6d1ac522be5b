package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sk3tch4d/Anikto-Opsis-sub000/config"
	"github.com/sk3tch4d/Anikto-Opsis-sub000/internal/service"
)

// ═══════════════════════════════════════════════════════════
// report — 生成工作簿并打印摘要
// ═══════════════════════════════════════════════════════════

func newReportCmd(a *app) *cobra.Command {
	var outDir string
	cmd := &cobra.Command{
		Use:   "report <files...>",
		Short: "生成 ARGX_<最早日期>.xlsx 工作簿",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			docs, err := loadDocuments(args)
			if err != nil {
				return err
			}
			report, err := a.svc.BuildReport(cmd.Context(), docs)
			if err != nil {
				if report != nil {
					printDocumentStats(cmd.OutOrStdout(), report)
				}
				return err
			}

			if outDir == "" {
				outDir = a.cfg.Report.OutputDir
			}
			path, err := service.NewReportRenderer(a.cfg.Report.FilePrefix).WriteFile(report.Dataset, outDir)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printDocumentStats(out, report)
			printRanking(out, report.Dataset)
			fmt.Fprintf(out, "已写入 %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "输出目录（默认 report.output_dir）")
	return cmd
}

func printDocumentStats(w io.Writer, report *service.Report) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "文档\t提取\t候选行\t跳过\t换班\t状态")
	for _, d := range report.Documents {
		skipped := 0
		for _, n := range d.Stats.Skipped {
			skipped += n
		}
		state := "ok"
		if d.Err != nil {
			state = d.Err.Error()
		} else if d.Cached {
			state = "cached"
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%s\n",
			d.SourceFile, d.Stats.Extracted, d.Stats.Forwarded, skipped, len(d.Swaps), state)
	}
	tw.Flush()
}

func printRanking(w io.Writer, ds *service.Dataset) {
	fmt.Fprintf(w, "\n%s ~ %s  共 %d 个班次，丢弃重复 %d 条\n",
		ds.MinDate().Format(config.DateLayout), ds.MaxDate().Format(config.DateLayout),
		len(ds.Entries), len(ds.Dropped))

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "排名\t员工\t工时")
	for i, r := range service.RankAllTime(ds) {
		fmt.Fprintf(tw, "%d\t%s\t%d\n", i+1, r.Name, r.Hours)
	}
	tw.Flush()

	if day, ok := service.BusiestDay(ds); ok {
		fmt.Fprintf(w, "最忙的一天: %s（%.1f 小时）\n", day.Date.Format(config.DateLayout), day.Hours)
	}
}

// ═══════════════════════════════════════════════════════════
// heatmap — 人 × 周 工时矩阵
// ═══════════════════════════════════════════════════════════

func newHeatmapCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "heatmap <files...>",
		Short: "输出人 × 周工时矩阵（table | json）",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			docs, err := loadDocuments(args)
			if err != nil {
				return err
			}
			report, err := a.svc.BuildReport(cmd.Context(), docs)
			if err != nil {
				return err
			}
			m := service.BuildHeatmap(report.Dataset)
			out := cmd.OutOrStdout()

			switch format {
			case "json":
				weeks := make([]string, 0, len(m.Weeks))
				for _, wk := range m.Weeks {
					weeks = append(weeks, wk.Format(config.DateLayout))
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]interface{}{"people": m.People, "weeks": weeks, "values": m.Values})
			case "table":
				tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', tabwriter.AlignRight)
				header := []string{"员工"}
				for _, wk := range m.Weeks {
					header = append(header, wk.Format(config.DateLayout))
				}
				fmt.Fprintln(tw, strings.Join(header, "\t")+"\t")
				for i, p := range m.People {
					row := []string{p}
					for _, v := range m.Values[i] {
						row = append(row, fmt.Sprintf("%.1f", v))
					}
					fmt.Fprintln(tw, strings.Join(row, "\t")+"\t")
				}
				return tw.Flush()
			default:
				return fmt.Errorf("不支持的输出格式 %q，可选 table | json", format)
			}
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "table", "输出格式 table | json")
	return cmd
}

// ═══════════════════════════════════════════════════════════
// swaps — 换班记录
// ═══════════════════════════════════════════════════════════

func newSwapsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "swaps <files...>",
		Short: "列出解析出的换班记录",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			docs, err := loadDocuments(args)
			if err != nil {
				return err
			}
			report, err := a.svc.BuildReport(cmd.Context(), docs)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "日期\t时段\t时间\t原员工\t接替人\t原因\t备注\t班次")
			for _, s := range report.Dataset.Swaps {
				fmt.Fprintf(tw, "%s\t%s\t%s-%s\t%s\t%s\t%s\t%s\t%s\n",
					s.Date.Format(config.DateLayout), s.Period, s.StartTime, s.EndTime,
					s.OriginalEmployee, s.CoveringEmployee, s.Reason, s.Notes, s.ShiftCode)
			}
			return tw.Flush()
		},
	}
}

// ═══════════════════════════════════════════════════════════
// calendar — 个人班次日历
// ═══════════════════════════════════════════════════════════

func newCalendarCmd(a *app) *cobra.Command {
	var person, outFile string
	cmd := &cobra.Command{
		Use:   "calendar <files...>",
		Short: "导出某人的班次日历（.ics）",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			docs, err := loadDocuments(args)
			if err != nil {
				return err
			}
			body, _, err := a.svc.ExportCalendar(cmd.Context(), docs, person)
			if err != nil {
				return err
			}
			if outFile == "" || outFile == "-" {
				_, err = io.WriteString(cmd.OutOrStdout(), body)
				return err
			}
			return os.WriteFile(outFile, []byte(body), 0o644)
		},
	}
	cmd.Flags().StringVarP(&person, "person", "p", "", `员工姓名，格式 "Last, First"`)
	cmd.Flags().StringVarP(&outFile, "out", "o", "", "输出文件（默认标准输出）")
	cmd.MarkFlagRequired("person")
	return cmd
}
