package repository

import (
	"go.mongodb.org/mongo-driver/bson"

	bCtx "github.com/x-xyz/auction/base/ctx"
	"github.com/x-xyz/auction/base/database/mongoclient"
	"github.com/x-xyz/auction/base/log"
	"github.com/x-xyz/auction/domain"
	"github.com/x-xyz/auction/service/query"
)

type payTokenMongoRepo struct {
	q query.Mongo
}

func NewPayTokenRepo(q query.Mongo) domain.PayTokenRepo {
	return &payTokenMongoRepo{
		q: q,
	}
}

// FindOne returns nil without error when the token is not registered
func (r *payTokenMongoRepo) FindOne(ctx bCtx.Ctx, chainId domain.ChainId, tokenAddress domain.Address) (*domain.PayToken, error) {
	payToken := &domain.PayToken{}
	if qry, err := mongoclient.MakeBsonM(&domain.Id{ChainId: chainId, Address: tokenAddress.ToLower()}); err != nil {
		ctx.WithField("err", err).Error("mongoclient.MakeBsonM failed")
		return nil, err
	} else if err := r.q.FindOne(ctx, domain.TablePayTokens, qry, payToken); err != nil && err != query.ErrNotFound {
		ctx.WithField("err", err).Error("q.FindOne failed")
		return nil, err
	} else if err == query.ErrNotFound {
		return nil, nil
	}
	return payToken, nil
}

func (r *payTokenMongoRepo) FindAll(ctx bCtx.Ctx, chainId domain.ChainId) ([]*domain.PayToken, error) {
	res := []*domain.PayToken{}
	qry := bson.M{"chainId": chainId}
	if err := r.q.Search(ctx, domain.TablePayTokens, 0, 0, "address", qry, &res); err != nil {
		ctx.WithFields(log.Fields{"err": err, "chainId": chainId}).Error("q.Search failed")
		return nil, err
	}
	return res, nil
}

func (r *payTokenMongoRepo) Upsert(ctx bCtx.Ctx, payToken *domain.PayToken) error {
	payToken.Address = payToken.Address.ToLower()
	payToken.ChainlinkProxyAddress = payToken.ChainlinkProxyAddress.ToLower()
	selector, err := mongoclient.MakeBsonM(payToken.ToId())
	if err != nil {
		ctx.WithField("err", err).Error("failed to make bson.M")
		return err
	}
	if err := r.q.Upsert(ctx, domain.TablePayTokens, selector, payToken); err != nil {
		ctx.WithFields(log.Fields{
			"err": err,
			"id":  payToken.ToId(),
		}).Error("failed to update")
		return err
	}
	return nil
}

func (r *payTokenMongoRepo) Patch(ctx bCtx.Ctx, id *domain.Id, patchable *domain.PayTokenPatchable) error {
	selector, err := mongoclient.MakeBsonM(&domain.Id{ChainId: id.ChainId, Address: id.Address.ToLower()})
	if err != nil {
		ctx.WithField("err", err).Error("mongoclient.MakeBsonM failed")
		return err
	}
	if val, err := mongoclient.MakeBsonM(patchable); err != nil {
		ctx.WithField("err", err).Error("mongoclient.MakeBsonM failed")
		return err
	} else if err := r.q.Patch(ctx, domain.TablePayTokens, selector, val); err == query.ErrNotFound {
		return domain.ErrNotFound
	} else if err != nil {
		ctx.WithFields(log.Fields{"err": err, "id": id}).Error("q.Patch failed")
		return err
	}
	return nil
}
