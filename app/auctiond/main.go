package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/x-xyz/auction/base/ctx"
	"github.com/x-xyz/auction/base/database/mongoclient"
	"github.com/x-xyz/auction/base/database/redisclient"
	"github.com/x-xyz/auction/base/env"
	"github.com/x-xyz/auction/base/log"
	"github.com/x-xyz/auction/base/metrics"
	bValidator "github.com/x-xyz/auction/base/validator"
	"github.com/x-xyz/auction/domain"
	"github.com/x-xyz/auction/service/cache/provider/compound"
	"github.com/x-xyz/auction/service/cache/provider/primitive"
	redisprovider "github.com/x-xyz/auction/service/cache/provider/redis"
	"github.com/x-xyz/auction/service/chain"
	"github.com/x-xyz/auction/service/chainlink"
	"github.com/x-xyz/auction/service/ledger"
	"github.com/x-xyz/auction/service/query"
	"github.com/x-xyz/auction/service/redis"
	"github.com/x-xyz/auction/service/sequencer"
	auction_keeper "github.com/x-xyz/auction/stores/auction/keeper"
	auction_repository "github.com/x-xyz/auction/stores/auction/repository"
	auction_usecase "github.com/x-xyz/auction/stores/auction/usecase"
	paytoken_repository "github.com/x-xyz/auction/stores/paytoken/repository"
	paytoken_usecase "github.com/x-xyz/auction/stores/paytoken/usecase"
)

const sequencerInboxSize = 256

func init() {
	pflag.String("config", env.ConfigFile("infra/configs/config.yaml"), "config file")
	pflag.Bool("migrate", false, "upgrade a version 1 engine state to version 2 on start")
	pflag.Duration("keeper-interval", 30*time.Second, "settlement keeper polling interval, 0 disables the keeper")
	pflag.Parse()
	if err := viper.BindPFlags(pflag.CommandLine); err != nil {
		panic(err)
	}

	viper.SetConfigType("yaml")
	viper.SetConfigFile(viper.GetString("config"))
	err := viper.ReadInConfig()
	if err != nil {
		panic(err)
	}

	if viper.GetBool(`debug`) {
		log.Log().Info("Service RUN on DEBUG mode")
	}
}

func main() {
	context, cancel := ctx.WithCancel(ctx.Background())
	defer cancel()
	defer func() { _ = log.Sync() }()

	engineCfg := auction_usecase.Config{}
	if err := viper.UnmarshalKey("engine", &engineCfg); err != nil {
		context.WithField("err", err).Panic("failed to read engine config")
	}
	if err := bValidator.Struct(engineCfg); err != nil {
		context.WithField("err", err).Panic("invalid engine config")
	}
	chainId := domain.ChainId(viper.GetInt32("engine.chainId"))

	// init mongo client
	context.Info("init mongo")
	mongoClient := mongoclient.MustConnectMongoClient(context, mongoclient.Config{
		URI:                viper.GetString("mongo.uri"),
		AuthDBName:         viper.GetString("mongo.authDBName"),
		DBName:             viper.GetString("mongo.dbName"),
		SSL:                viper.GetBool("mongo.enableSSL"),
		SetSafe:            true,
		PoolSizeMultiplier: 2,
	})
	q := query.New(mongoClient, viper.GetBool("mongo.checkIndex"), metrics.New("mongo"))

	// init Redis service
	context.Info("init redis cache")
	redisCacheName := viper.GetString("redis_cache.name")
	redisCachePool := redisclient.MustConnectRedis(context, redisclient.Config{
		URI:            viper.GetString("redis_cache.uri"),
		Password:       viper.GetString("redis_cache.password"),
		PoolMultiplier: viper.GetFloat64("redis_cache.poolMultiplier"),
		Retry:          true,
	})
	redisCache := redis.New(redisCacheName, metrics.New(redisCacheName), redisCachePool)

	// init chain service
	networks := viper.Sub("networks")
	rpcs := make(map[int32]string)
	archiveRpcs := make(map[int32]string)
	if networks != nil {
		for k := range networks.AllSettings() {
			id := networks.GetInt32(fmt.Sprintf("%s.chainId", k))
			rpcs[id] = networks.GetString(fmt.Sprintf("%s.rpcUrl", k))
			if url := networks.GetString(fmt.Sprintf("%s.archiveRpcUrl", k)); url != "" {
				archiveRpcs[id] = url
			}
		}
	}
	chainService, err := chain.NewClient(context, &chain.ClientCfg{
		RpcUrls:        rpcs,
		ArchiveRpcUrls: archiveRpcs,
	})
	if err != nil {
		context.WithField("err", err).Panic("chain.NewClient failed")
	}

	prices := chainlink.New(chainService, chainlink.Config{
		ChainId:  chainId,
		Cache:    compound.NewCompound(primitive.NewPrimitive("chainlink", 8), redisprovider.NewRedis(redisCache)),
		QuoteTtl: viper.GetDuration("chainlink.quoteTtl"),
	})

	// asset, token and native balances are kept in process
	registries := ledger.New()

	engineMet := metrics.New("auction")
	engine, err := auction_usecase.New(
		context,
		engineCfg,
		registries,
		prices,
		auction_repository.NewStateMongoRepo(q, engineCfg.EngineAddress),
		auction_usecase.WithMetrics(engineMet),
		auction_usecase.WithEventRepo(auction_repository.NewEventMongoRepo(q)),
	)
	if err != nil {
		context.WithField("err", err).Panic("auction_usecase.New failed")
	}
	seq := sequencer.New(sequencerInboxSize, metrics.New("sequencer"))
	auctionUseCase := auction_usecase.NewSerial(engine, seq)

	if viper.GetBool("migrate") {
		if err := auctionUseCase.Migrate(context, engineCfg.Owner, engineCfg.EngineAddress); err != nil {
			context.WithField("err", err).Panic("Migrate failed")
		}
		context.Info("engine migrated")
	}

	payTokenUseCase := paytoken_usecase.NewPayTokenUseCase(paytoken_repository.NewPayTokenRepo(q), auctionUseCase)
	if n, err := payTokenUseCase.SyncPriceFeeds(context, chainId, engineCfg.Owner); err != nil {
		context.WithField("err", err).Error("SyncPriceFeeds failed")
	} else {
		context.WithField("updated", n).Info("price feeds synced")
	}

	var keeper *auction_keeper.Keeper
	if interval := viper.GetDuration("keeper-interval"); interval > 0 {
		keeper = auction_keeper.NewKeeper(&auction_keeper.KeeperCfg{
			Settler:  auctionUseCase,
			Caller:   engineCfg.Owner,
			Interval: interval,
			Metrics:  metrics.New("keeper"),
		})
		keeper.Start(context)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	context.Info("shutting down")

	cancel()
	if keeper != nil {
		keeper.Wait()
	}
	seq.Close()
	if err := mongoClient.Disconnect(context); err != nil {
		context.WithField("err", err).Error("mongoClient.Disconnect failed")
	}
}
