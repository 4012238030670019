// Package model 定义数据库实体模型
// 本文件定义 IDSet：以 JSON 数组落库的用户 ID 集合，用于逐用户软删除标记
package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// IDSet 用户 ID 集合，gorm 列类型为 JSON
// 空集合落库为 "[]" 而非 NULL，保证 JSON_CONTAINS 查询语义正确
type IDSet []int64

// Contains 判断集合是否包含指定用户
func (s IDSet) Contains(userID int64) bool {
	for _, id := range s {
		if id == userID {
			return true
		}
	}
	return false
}

// Add 返回加入指定用户后的集合，重复加入为幂等
func (s IDSet) Add(userID int64) IDSet {
	if s.Contains(userID) {
		return s
	}
	return append(s, userID)
}

// Remove 返回移除指定用户后的集合，不存在则原样返回
func (s IDSet) Remove(userID int64) IDSet {
	for i, id := range s {
		if id == userID {
			return append(s[:i:i], s[i+1:]...)
		}
	}
	return s
}

// Value 实现 driver.Valuer，序列化为 JSON 数组
func (s IDSet) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	data, err := json.Marshal([]int64(s))
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan 实现 sql.Scanner，从 JSON 数组反序列化
func (s *IDSet) Scan(value interface{}) error {
	if value == nil {
		*s = IDSet{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("idset: unsupported column type %T", value)
	}
	if len(data) == 0 {
		*s = IDSet{}
		return nil
	}
	var ids []int64
	if err := json.Unmarshal(data, &ids); err != nil {
		return fmt.Errorf("idset: %w", err)
	}
	*s = ids
	return nil
}
