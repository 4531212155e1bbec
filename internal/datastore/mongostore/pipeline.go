package mongostore

import (
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/Micevski239/gerbera-sub000/internal/datastore"
)

const nullRankPrefix = "_nullrank_"

// BuildFilter translates the predicates of q into a match document.
func BuildFilter(q datastore.Query) (bson.D, error) {
	and := bson.A{}
	for _, f := range q.Filters {
		doc, err := predicate(f)
		if err != nil {
			return nil, err
		}
		and = append(and, doc)
	}
	for _, group := range q.Any {
		or := bson.A{}
		for _, f := range group {
			doc, err := predicate(f)
			if err != nil {
				return nil, err
			}
			or = append(or, doc)
		}
		and = append(and, bson.D{{Key: "$or", Value: or}})
	}
	if len(and) == 0 {
		return bson.D{}, nil
	}
	return bson.D{{Key: "$and", Value: and}}, nil
}

func predicate(f datastore.Filter) (bson.D, error) {
	var cond any
	switch f.Op {
	case datastore.OpEq:
		cond = bson.D{{Key: "$eq", Value: f.Value}}
	case datastore.OpNeq:
		// Null and missing fields never satisfy an inequality.
		cond = bson.D{{Key: "$nin", Value: bson.A{f.Value, nil}}}
	case datastore.OpGte:
		cond = bson.D{{Key: "$gte", Value: f.Value}}
	case datastore.OpLte:
		cond = bson.D{{Key: "$lte", Value: f.Value}}
	case datastore.OpIn:
		values, _ := datastore.InValues(f.Value)
		cond = bson.D{{Key: "$in", Value: bson.A(values)}}
	case datastore.OpILike:
		needle, _ := f.Value.(string)
		cond = bson.D{{Key: "$regex", Value: regexp.QuoteMeta(needle)}, {Key: "$options", Value: "i"}}
	default:
		return nil, fmt.Errorf("%w: %q", datastore.ErrUnsupportedOperator, f.Op)
	}
	return bson.D{{Key: f.Field, Value: cond}}, nil
}

// BuildPipeline renders q as an aggregation pipeline. Nulls-last orderings add
// a rank field per ordering key that sorts before the key itself.
func BuildPipeline(q datastore.Query) (bson.A, error) {
	match, err := BuildFilter(q)
	if err != nil {
		return nil, err
	}
	pipeline := bson.A{bson.D{{Key: "$match", Value: match}}}

	ranks := bson.D{}
	sort := bson.D{}
	for _, o := range q.Orders {
		dir := 1
		if o.Desc {
			dir = -1
		}
		if o.NullsLast {
			rank := nullRankPrefix + o.Field
			ranks = append(ranks, bson.E{Key: rank, Value: bson.D{{Key: "$cond", Value: bson.A{
				bson.D{{Key: "$eq", Value: bson.A{bson.D{{Key: "$ifNull", Value: bson.A{"$" + o.Field, nil}}}, nil}}},
				1,
				0,
			}}}})
			sort = append(sort, bson.E{Key: rank, Value: 1})
		}
		sort = append(sort, bson.E{Key: o.Field, Value: dir})
	}
	if len(ranks) > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$addFields", Value: ranks}})
	}
	if len(sort) > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$sort", Value: sort}})
	}
	if q.Range != nil {
		pipeline = append(pipeline,
			bson.D{{Key: "$skip", Value: int64(q.Range.Offset)}},
			bson.D{{Key: "$limit", Value: int64(q.Range.Limit)}},
		)
	}
	project := bson.D{{Key: "_id", Value: 0}}
	for _, r := range ranks {
		project = append(project, bson.E{Key: r.Key, Value: 0})
	}
	pipeline = append(pipeline, bson.D{{Key: "$project", Value: project}})
	return pipeline, nil
}
