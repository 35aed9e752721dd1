package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JabridDave10/distributed-systems-project-backend/internal/dto"
	"github.com/JabridDave10/distributed-systems-project-backend/internal/model"
	"github.com/JabridDave10/distributed-systems-project-backend/internal/repository"
	"github.com/JabridDave10/distributed-systems-project-backend/internal/service"
	"github.com/JabridDave10/distributed-systems-project-backend/pkg/database"
)

// ────── migrate ──────

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "数据库迁移",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "执行全部未应用的迁移",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, logger, db, err := bootstrap()
			if err != nil {
				return err
			}
			defer logger.Sync()
			defer closeDB(db)

			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return database.RunMigrations(sqlDB, logger)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "查看当前迁移版本",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, logger, db, err := bootstrap()
			if err != nil {
				return err
			}
			defer logger.Sync()
			defer closeDB(db)

			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			version, dirty, err := database.MigrationVersion(sqlDB)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version=%d dirty=%v\n", version, dirty)
			return nil
		},
	})

	return cmd
}

// ────── create-user ──────

func createUserCmd() *cobra.Command {
	var req dto.CreateUserRequest
	var phone string

	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "创建医生或管理员账号",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, logger, db, err := bootstrap()
			if err != nil {
				return err
			}
			defer logger.Sync()
			defer closeDB(db)

			if phone != "" {
				req.Phone = &phone
			}

			svc := service.NewUserService(repository.NewRepository(db), logger)
			user, err := svc.CreateUser(context.Background(), &req)
			if err != nil {
				return err
			}

			logger.Info("账号已创建", zap.String("user_id", user.ID), zap.String("role", user.Role))
			fmt.Fprintln(cmd.OutOrStdout(), user.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.FirstName, "first-name", "", "名")
	cmd.Flags().StringVar(&req.LastName, "last-name", "", "姓")
	cmd.Flags().StringVar(&req.Email, "email", "", "登录邮箱")
	cmd.Flags().StringVar(&req.Password, "password", "", "初始密码（至少 8 位）")
	cmd.Flags().StringVar(&phone, "phone", "", "电话")
	cmd.Flags().StringVar(&req.Role, "role", model.RoleDoctor, "角色: admin | doctor | patient")
	cmd.MarkFlagRequired("first-name")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("password")
	return cmd
}
