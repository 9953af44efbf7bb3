package cache

import (
	"time"

	"github.com/gomodule/redigo/redis"
	log "github.com/sirupsen/logrus"
)

func Get(key string, conn redis.Conn) (string, error) {
	data, err := redis.String(conn.Do("GET", key))
	if err != nil && err != redis.ErrNil {
		log.WithError(err).WithField("key", key).Warn("redis GET failed")
	}
	return data, err
}

func Del(key string, conn redis.Conn) error {
	_, err := conn.Do("DEL", key)
	return err
}

// Set stores value under key. A positive ttl makes the key expire.
func Set(key string, value interface{}, ttl time.Duration, conn redis.Conn) error {
	args := redis.Args{}.Add(key, value)
	if ttl > 0 {
		args = args.Add("EX", int64(ttl/time.Second))
	}
	_, err := redis.String(conn.Do("SET", args...))
	if err != nil {
		log.WithError(err).WithField("key", key).Warn("redis SET failed")
	}
	return err
}
