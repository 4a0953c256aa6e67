// internal/pkg/redis/client.go
package redis

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client 封装 go-redis 客户端，屏蔽单机/集群地址差异。
type Client struct {
	rdb redis.UniversalClient
}

// NewClient 建立 Redis 连接并做一次连通性检查。
// addrs 支持 "host1:6379,host2:6379" 形式。
func NewClient(addrs string) (*Client, error) {
	rdb := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs: strings.Split(addrs, ","),
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return &Client{rdb: rdb}, nil
}

// GetClient 暴露底层客户端给需要 pipeline 等高级用法的调用方。
func (c *Client) GetClient() redis.UniversalClient {
	return c.rdb
}

func (c *Client) Close() error {
	return c.rdb.Close()
}
