/*
Copyright © 2025 Ambor <saltbo@foxmail.com>

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/eslsoft/finquest/internal/adapter/mapping"
	"github.com/eslsoft/finquest/internal/app"
	"github.com/eslsoft/finquest/internal/usecase"
)

var progressCmd = &cobra.Command{
	Use:   "progress",
	Short: "查看或修改单个用户的学习进度",
}

var progressShowCmd = &cobra.Command{
	Use:   "show <user-id>",
	Short: "显示用户进度与等级",
	Args:  cobra.ExactArgs(1),
	RunE: withProgression(func(cmd *cobra.Command, svc usecase.ProgressionUsecase, args []string) error {
		record, err := svc.GetProgress(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		level, err := svc.GetLevelInfo(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), mapping.ProgressResponse{Progress: record, Level: *level, Persisted: true})
	}),
}

var progressLoginCmd = &cobra.Command{
	Use:   "login <user-id>",
	Short: "记录今日登录并更新连续天数",
	Args:  cobra.ExactArgs(1),
	RunE: withProgression(func(cmd *cobra.Command, svc usecase.ProgressionUsecase, args []string) error {
		result, err := svc.RecordLogin(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), mapping.FromLoginResult(result))
	}),
}

var progressCompleteCmd = &cobra.Command{
	Use:   "complete <user-id> <stage-id> <lesson-id> <score>",
	Short: "以指定分数完成课程",
	Args:  cobra.ExactArgs(4),
	RunE: withProgression(func(cmd *cobra.Command, svc usecase.ProgressionUsecase, args []string) error {
		ids := make([]int, 0, 3)
		for _, raw := range args[1:] {
			n, err := strconv.Atoi(raw)
			if err != nil {
				return fmt.Errorf("无效的数字参数 %q", raw)
			}
			ids = append(ids, n)
		}
		result, err := svc.CompleteLesson(cmd.Context(), args[0], ids[0], ids[1], ids[2])
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), mapping.FromCompletionResult(result))
	}),
}

var progressResetCmd = &cobra.Command{
	Use:   "reset <user-id>",
	Short: "将用户进度重置为初始状态",
	Args:  cobra.ExactArgs(1),
	RunE: withProgression(func(cmd *cobra.Command, svc usecase.ProgressionUsecase, args []string) error {
		record, err := svc.ResetProgress(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), record)
	}),
}

var progressDeleteCmd = &cobra.Command{
	Use:   "delete <user-id>",
	Short: "删除用户的进度记录",
	Args:  cobra.ExactArgs(1),
	RunE: withProgression(func(cmd *cobra.Command, svc usecase.ProgressionUsecase, args []string) error {
		if err := svc.DeleteProgress(cmd.Context(), args[0]); err != nil {
			return err
		}
		cmd.Printf("已删除: %s\n", args[0])
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(progressCmd)
	progressCmd.AddCommand(progressShowCmd, progressLoginCmd, progressCompleteCmd, progressResetCmd, progressDeleteCmd)
}

func withProgression(run func(*cobra.Command, usecase.ProgressionUsecase, []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		container, cleanup, err := app.Initialize()
		if err != nil {
			return fmt.Errorf("initialize app: %w", err)
		}
		defer cleanup()
		return run(cmd, container.Progression, args)
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
