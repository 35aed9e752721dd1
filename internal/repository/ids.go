package repository

import "github.com/google/uuid"

// isUUID 主键与外键列均为 uuid 类型，非法 ID 直接视为不存在，
// 避免 PostgreSQL 返回 22P02 (invalid_text_representation)
func isUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
