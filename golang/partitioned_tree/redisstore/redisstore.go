package redisstore

import (
	"fmt"

	"github.com/tarstars/partitioned_trees/golang/partitioned_tree/pdt"
	"gopkg.in/redis.v5"
)

//Store keeps fitted models in a redis DB under prefixed keys.
type Store struct {
	rc     *redis.Client
	prefix string
}

//New builds a Store backed by a redis client.
func New(rc *redis.Client, prefix string) *Store {
	return &Store{rc, prefix}
}

//Dial connects to the redis server at addr and checks that it answers.
func Dial(addr, prefix string) (*Store, error) {
	rc := redis.NewClient(&redis.Options{Addr: addr})
	if err := rc.Ping().Err(); err != nil {
		rc.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %v", addr, err)
	}
	return New(rc, prefix), nil
}

//Save stores a model under name, replacing any previous one.
func (rs *Store) Save(name string, model pdt.Model) error {
	redisID := rs.keyFor(name)
	data, err := model.Encode()
	if err != nil {
		return fmt.Errorf("storing model %q: encoding model: %v", redisID, err)
	}
	_, err = rs.rc.Set(redisID, data, 0).Result()
	if err != nil {
		return fmt.Errorf("storing model %q in redis: %v", redisID, err)
	}
	return nil
}

//Load retrieves the model stored under name.
func (rs *Store) Load(name string) (pdt.Model, error) {
	redisID := rs.keyFor(name)
	data, err := rs.rc.Get(redisID).Bytes()
	if err != nil {
		return pdt.Model{}, fmt.Errorf("retrieving model %q: %v", redisID, err)
	}
	model, err := pdt.DecodeModel(data)
	if err != nil {
		return pdt.Model{}, fmt.Errorf("retrieving model %q: decoding: %v", redisID, err)
	}
	return model, nil
}

//Delete removes the model stored under name.
func (rs *Store) Delete(name string) error {
	redisID := rs.keyFor(name)
	_, err := rs.rc.Del(redisID).Result()
	if err != nil {
		return fmt.Errorf("deleting model %q from redis: %v", redisID, err)
	}
	return nil
}

//Close releases the redis connection.
func (rs *Store) Close() error {
	return rs.rc.Close()
}

func (rs *Store) keyFor(name string) string {
	return fmt.Sprintf("%s:%s", rs.prefix, name)
}
