package main

import (
	"context"
	"os"

	"github.com/namecore/nschain/common"
	"github.com/namecore/nschain/config"
	"github.com/namecore/nschain/mempool"
	"github.com/namecore/nschain/names"
	"github.com/namecore/nschain/store"
)

// node bundles the wiring a real block-processing loop and RPC server
// would sit on top of. This binary only brings the name subsystem up and
// keeps it alive for embedding; the base UTXO chain, P2P layer, and
// wallet are out of scope (spec.md §1 Non-goals).
type node struct {
	cfg    *config.YamlConf
	params *config.Params
	db     store.KVDB
	view   *names.StoreView
	pool   *mempool.NameMemPool
}

func main() {
	cfg := config.InitConfig("")
	if cfg == nil {
		os.Stderr.WriteString("namecored: failed to load config\n")
		os.Exit(1)
	}

	if err := config.InitLog(cfg); err != nil {
		os.Stderr.WriteString("namecored: failed to init log: " + err.Error() + "\n")
		os.Exit(1)
	}

	n, err := newNode(cfg)
	if err != nil {
		common.Log.Fatalf("namecored: startup failed: %v", err)
	}

	config.InitSigInt()
	config.RegistSigIntFunc(n.shutdown)

	common.Log.Infof("namecored: name database ready at %s (chain=%s, backend=%s)",
		cfg.DB.Path, cfg.Chain, cfg.DB.Backend)

	select {}
}

func newNode(cfg *config.YamlConf) (*node, error) {
	params := paramsForChain(cfg.Chain)

	db, err := store.Open(cfg.DB.Backend, cfg.DB.Path)
	if err != nil {
		return nil, common.Wrapf(err, "open store")
	}

	nameCfg := cfg.ToNameConfig()
	view := names.NewStoreView(db)
	pool := mempool.NewNameMemPool(nameCfg)

	stats, err := view.LoadStats()
	if err != nil {
		return nil, common.Wrapf(err, "load name stats")
	}
	count, err := names.CountNames(context.Background(), view)
	if err != nil {
		return nil, common.Wrapf(err, "count names")
	}
	stats.NameCount = count
	common.Log.Infof("namecored: name stats version=%s count=%d", stats.Version, stats.NameCount)

	wb := db.NewWriteBatch()
	if err := view.SaveStats(wb, stats); err != nil {
		wb.Close()
		return nil, common.Wrapf(err, "save name stats")
	}
	if err := wb.Flush(); err != nil {
		wb.Close()
		return nil, common.Wrapf(err, "flush name stats")
	}
	wb.Close()

	return &node{
		cfg:    cfg,
		params: params,
		db:     db,
		view:   view,
		pool:   pool,
	}, nil
}

func paramsForChain(chain string) *config.Params {
	switch chain {
	case "regtest", "regression":
		return config.RegressionNetParams()
	default:
		return config.MainNetParams()
	}
}

func (n *node) shutdown() {
	common.Log.Infof("namecored: shutting down")
	if err := n.db.Close(); err != nil {
		common.Log.Errorf("namecored: error closing store: %v", err)
	}
	config.ReleaseRes()
}
