// Package tlsutil 提供 Redis 缓存连接与 health 命令 HTTP 客户端共用的 TLS 配置（TLS 1.2+，仅 AEAD 密码套件）。
package tlsutil
