package main

import (
	"fmt"
	"os"

	"github.com/tarstars/partitioned_trees/golang/partitioned_tree/pdt"
	"github.com/tarstars/partitioned_trees/golang/partitioned_tree/redisstore"
	"github.com/tarstars/partitioned_trees/golang/partitioned_tree/sqlsource"
	"gopkg.in/yaml.v2"
)

func decodeConfig(srcConfig string, out interface{}) error {
	data, err := os.ReadFile(srcConfig)
	if err != nil {
		return err
	}
	if err = yaml.UnmarshalStrict(data, out); err != nil {
		return fmt.Errorf("parsing %s: %v", srcConfig, err)
	}
	return nil
}

//NpyPartition is a partition stored as a feature matrix and a label vector.
type NpyPartition struct {
	Features string `yaml:"features"`
	Labels   string `yaml:"labels"`
}

//SQLiteSource is a partitioned table in an SQLite3 database.
type SQLiteSource struct {
	Path            string   `yaml:"path"`
	Table           string   `yaml:"table"`
	PartitionColumn string   `yaml:"partition_column"`
	LabelColumn     string   `yaml:"label_column"`
	FeatureColumns  []string `yaml:"feature_columns"`
}

//RedisConfig points at a model kept in redis.
type RedisConfig struct {
	Addr   string `yaml:"addr"`
	Prefix string `yaml:"prefix"`
	Name   string `yaml:"name"`
}

//ModelLocation is a model file or a redis key; redis wins when both are set.
type ModelLocation struct {
	FileNameModel string       `yaml:"filename_model"`
	Redis         *RedisConfig `yaml:"redis"`
}

type TrainConfig struct {
	Task                 string         `yaml:"task"`
	MaxDepth             *int           `yaml:"max_depth"`
	MinImpurityDecrease  float64        `yaml:"min_impurity_decrease"`
	ProbabilityThreshold float64        `yaml:"probability_threshold"`
	Classes              []float64      `yaml:"classes"`
	ThreadsNum           int            `yaml:"threads_num"`
	Partitions           []NpyPartition `yaml:"partitions"`
	Stacked              []string       `yaml:"stacked"`
	SQLite               *SQLiteSource  `yaml:"sqlite"`
	ModelLocation        `yaml:",inline"`
}

type PredictConfig struct {
	FileNameFeatures string `yaml:"filename_features"`
	FileNameTarget   string `yaml:"filename_target"`
	ModelLocation    `yaml:",inline"`
}

type GraphConfig struct {
	FigureType    string `yaml:"figure_type"`
	FileNameGraph string `yaml:"filename_graph"`
	ModelLocation `yaml:",inline"`
}

//Params converts the learning settings into tree parameters.
func (tc TrainConfig) Params() pdt.TreeParams {
	params := pdt.DefaultTreeParams()
	if tc.MaxDepth != nil {
		params.MaxDepth = *tc.MaxDepth
	}
	params.MinImpurityDecrease = tc.MinImpurityDecrease
	if tc.ProbabilityThreshold != 0 {
		params.ProbabilityThreshold = tc.ProbabilityThreshold
	}
	params.Classes = tc.Classes
	if tc.ThreadsNum > 0 {
		params.Workers = tc.ThreadsNum
	}
	return params
}

//LoadDataset reads every configured partition source.
func (tc TrainConfig) LoadDataset() (*pdt.Dataset, error) {
	var partitions []*pdt.Partition
	for _, source := range tc.Partitions {
		part, err := pdt.ReadPartitionNpy(source.Features, source.Labels)
		if err != nil {
			return nil, err
		}
		partitions = append(partitions, part)
	}
	for _, fileName := range tc.Stacked {
		parts, err := pdt.ReadStackedNpy(fileName)
		if err != nil {
			return nil, err
		}
		partitions = append(partitions, parts...)
	}
	if tc.SQLite != nil {
		parts, err := sqlsource.Load(tc.SQLite.Path, sqlsource.Table{
			Name:            tc.SQLite.Table,
			PartitionColumn: tc.SQLite.PartitionColumn,
			LabelColumn:     tc.SQLite.LabelColumn,
			FeatureColumns:  tc.SQLite.FeatureColumns,
		})
		if err != nil {
			return nil, err
		}
		partitions = append(partitions, parts...)
	}
	return pdt.NewDataset(partitions...)
}

func (ml ModelLocation) Validate() error {
	if ml.FileNameModel == "" && ml.Redis == nil {
		return fmt.Errorf("neither filename_model nor redis is set")
	}
	if ml.Redis != nil && (ml.Redis.Addr == "" || ml.Redis.Name == "") {
		return fmt.Errorf("redis needs both addr and name")
	}
	return nil
}

func (ml ModelLocation) Save(model pdt.Model) error {
	if ml.Redis != nil {
		store, err := redisstore.Dial(ml.Redis.Addr, ml.Redis.Prefix)
		if err != nil {
			return err
		}
		defer store.Close()
		if err = store.Save(ml.Redis.Name, model); err != nil {
			return err
		}
	}
	if ml.FileNameModel != "" {
		return model.Save(ml.FileNameModel)
	}
	return nil
}

func (ml ModelLocation) Load() (pdt.Model, error) {
	if ml.Redis != nil {
		store, err := redisstore.Dial(ml.Redis.Addr, ml.Redis.Prefix)
		if err != nil {
			return pdt.Model{}, err
		}
		defer store.Close()
		return store.Load(ml.Redis.Name)
	}
	return pdt.LoadModel(ml.FileNameModel)
}
