package redis

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const lockRetryInterval = 200 * time.Millisecond

var unlockScript = redis.NewScript(`if redis.call('get', KEYS[1]) == ARGV[1] then return redis.call('del', KEYS[1]) else return 0 end`)

// KEYS[1] 缓存键 KEYS[2] 版本键，版本未变化时才写入
var setIfVersionScript = redis.NewScript(`local v = redis.call('get', KEYS[2]) or '0'
if v == ARGV[1] then
	redis.call('set', KEYS[1], ARGV[2], 'PX', ARGV[3])
	return 1
end
return 0`)

const versionTTL = 24 * time.Hour

// SetWithExpiration 设置键值对并设置过期时间
func SetWithExpiration(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return Rdb.Set(ctx, key, value, expiration).Err()
}

// GetValue 获取字符串类型的值，不存在时返回空串
func GetValue(ctx context.Context, key string) (string, error) {
	value, err := Rdb.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", err
	}
	return value, nil
}

// GetInt64 获取整数值，ok 为 false 表示未命中
func GetInt64(ctx context.Context, key string) (int64, bool, error) {
	value, err := GetValue(ctx, key)
	if err != nil || value == "" {
		return 0, false, err
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, false, err
	}
	return n, true, nil
}

// TryLock 尝试加锁，retryTimes 为 -1 时一直重试直到 ctx 结束
func TryLock(ctx context.Context, key string, value interface{}, expiration time.Duration, retryTimes int) (bool, error) {
	for i := 0; i < retryTimes || retryTimes == -1; i++ {
		success, err := Rdb.SetNX(ctx, key, value, expiration).Result()
		if err != nil {
			return false, err
		}
		if success {
			return true, nil
		}
		if i+1 == retryTimes {
			break
		}
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(lockRetryInterval):
		}
	}
	return false, nil
}

// UnLock 仅当锁仍属于 value 时释放
func UnLock(ctx context.Context, key string, value interface{}) error {
	return unlockScript.Run(ctx, Rdb, []string{key}, value).Err()
}

// DeleteKey 删除一个或多个键
func DeleteKey(ctx context.Context, keys ...string) error {
	return Rdb.Del(ctx, keys...).Err()
}

// SetIfAbsent 键不存在时写入，返回是否写入成功
func SetIfAbsent(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error) {
	return Rdb.SetNX(ctx, key, value, expiration).Result()
}

// GetVersion 读取版本号，不存在时为 "0"
func GetVersion(ctx context.Context, versionKey string) (string, error) {
	v, err := GetValue(ctx, versionKey)
	if err != nil {
		return "", err
	}
	if v == "" {
		return "0", nil
	}
	return v, nil
}

// BumpVersion 版本号自增，使之前读取版本的写入失效
func BumpVersion(ctx context.Context, versionKey string) error {
	pipe := Rdb.TxPipeline()
	pipe.Incr(ctx, versionKey)
	pipe.Expire(ctx, versionKey, versionTTL)
	_, err := pipe.Exec(ctx)
	return err
}

// SetIfVersion 仅当版本号仍为 version 时写入缓存
func SetIfVersion(ctx context.Context, key, versionKey, version string, value interface{}, expiration time.Duration) (bool, error) {
	n, err := setIfVersionScript.Run(ctx, Rdb, []string{key, versionKey}, version, value, expiration.Milliseconds()).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
