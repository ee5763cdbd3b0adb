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
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/eslsoft/finquest/internal/app"
	"github.com/eslsoft/finquest/internal/entity"
	"github.com/eslsoft/finquest/internal/infrastructure/config"
	"github.com/eslsoft/finquest/internal/repository"
)

var dbInitCmd = &cobra.Command{
	Use:   "db-init",
	Short: "初始化进度数据库",
	Long:  "创建学习进度表，并可选地为指定用户写入空白进度。注意: go-sqlite3 需要 CGO_ENABLED=1 构建。",
	RunE: func(cmd *cobra.Command, args []string) error {
		users, _ := cmd.Flags().GetStringSlice("seed-users")

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("加载配置失败: %w", err)
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		repo, cleanup, err := runMigrations(ctx, cfg)
		if err != nil {
			return err
		}
		defer cleanup()
		cmd.Printf("数据库迁移完成 (%s)\n", cfg.DatabaseDriver())

		users = normalizeUsers(users)
		if len(users) == 0 {
			return nil
		}
		created, err := seedUsers(ctx, repo, users)
		if err != nil {
			return err
		}
		cmd.Printf("写入初始进度: %d 个用户 (跳过 %d 个已存在)\n", created, len(users)-created)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dbInitCmd)
	dbInitCmd.Flags().StringSlice("seed-users", nil, "为这些用户创建空白进度，逗号分隔或重复指定")
}

// runMigrations creates the progress schema on the configured database and
// returns a repository bound to it.
func runMigrations(ctx context.Context, cfg *config.Config) (repository.ProgressRepository, func(), error) {
	repo, cleanup, err := app.OpenProgressStore(ctx, cfg, logrus.StandardLogger())
	if err != nil {
		return nil, nil, fmt.Errorf("执行数据库迁移失败: %w", err)
	}
	return repo, cleanup, nil
}

// seedUsers stores a fresh record for every user that has none yet.
func seedUsers(ctx context.Context, repo repository.ProgressRepository, users []string) (int, error) {
	created := 0
	for _, userID := range users {
		_, err := repo.Find(ctx, userID)
		if err == nil {
			continue
		}
		if !errors.Is(err, entity.ErrProgressNotFound) {
			return created, fmt.Errorf("查询用户 %s 失败: %w", userID, err)
		}
		record := entity.NewProgressRecord(userID)
		record.UpdatedAt = time.Now().UTC()
		if err := repo.Save(ctx, record); err != nil {
			return created, fmt.Errorf("写入用户 %s 失败: %w", userID, err)
		}
		created++
	}
	return created, nil
}
