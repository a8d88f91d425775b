// Package owlrl implements the closed OWL 2 RL plus SWRL rule-template
// catalogue: each template watches the network for its trigger fact shape
// and lazily compiles the production that realises it.
package owlrl

import (
	"github.com/nimbit-software/rete-reasoner/rete"
	"github.com/nimbit-software/rete-reasoner/symbol"
)

// Record type names: the well-known values a fact's "type" attribute takes
// for every axiom and assertion shape the catalogue reasons over.
const (
	typeClass                     = "Class"
	typeSubClassOf                = "SubClassOf"
	typeEquivalentClass           = "EquivalentClass"
	typeDisjointClasses           = "DisjointClasses"
	typeIntersectionOf            = "IntersectionOf"
	typeUnionOf                   = "UnionOf"
	typeComplementOf              = "ComplementOf"
	typeClassMember               = "ClassMember"
	typePropertyAssertion         = "PropertyAssertion"
	typeDomain                    = "Domain"
	typeRange                     = "Range"
	typeFunctionalProperty        = "FunctionalProperty"
	typeInverseFunctionalProperty = "InverseFunctionalProperty"
	typeSymmetricProperty         = "SymmetricProperty"
	typeAsymmetricProperty        = "AsymmetricProperty"
	typeTransitiveProperty        = "TransitiveProperty"
	typeIrreflexiveProperty       = "IrreflexiveProperty"
	typeInverseOf                 = "InverseOf"
	typeSubPropertyOf             = "SubPropertyOf"
	typePropertyChain             = "PropertyChain"
	typeEquivalentProperty        = "EquivalentProperty"
	typeAllDisjointProperties     = "AllDisjointProperties"
	typeDisjointProperty          = "DisjointProperty"
	typeNegativePropertyAssertion = "NegativePropertyAssertion"
	typeHasKey                    = "HasKey"
	typeSomeValuesFrom            = "SomeValuesFrom"
	typeAllValuesFrom             = "AllValuesFrom"
	typeHasValue                  = "HasValue"
	typeMaxCardinality            = "MaxCardinality"
	typeMaxQualifiedCardinality   = "MaxQualifiedCardinality"
	typeOneOfMember               = "OneOfMember"
	typeSameAs                    = "SameAs"
	typeDifferentFrom             = "DifferentFrom"
	typeAllDifferentMember        = "AllDifferentMember"
	typeInconsistency             = "inconsistency"
	typeViolation                 = "violation"
	typeDivergence                = "divergence"
)

// Attribute key names shared across record types.
const (
	attrClass        = "class"
	attrSub          = "sub"
	attrSup          = "sup"
	attrA            = "a"
	attrB            = "b"
	attrOperand      = "operand"
	attrIndividual   = "individual"
	attrProperty     = "property"
	attrSubject      = "subject"
	attrObject       = "object"
	attrFiller       = "filler"
	attrValue        = "value"
	attrCardinality  = "n"
	attrGroupID      = "group"
	attrViolationTyp = "violation_type"
	attrDetail1      = "detail1"
	attrDetail2      = "detail2"
	attrRule         = "rule"
	attrOperands     = "operands" // StringData key: ordered member-class list
	attrChain        = "chain"    // StringData key: ordered property-chain list
	attrKeyProps     = "keyProps" // StringData key: hasKey's property list
	attrMember       = "member"   // group-membership record: the member symbol
)

// Well-known OWL/RDF concept and property names, interned once since the
// two foundational facts below are unconditionally present.
const (
	conceptThing   = "owl:Thing"
	conceptNothing = "owl:Nothing"
	propSameAs     = "owl:sameAs"
)

// vocab caches every interned symbol id the catalogue needs, built once per
// network registration: intern, don't scatter string literals.
type vocab struct {
	typeKey symbol.ID

	tClass, tSubClassOf, tEquivalentClass, tDisjointClasses                           symbol.ID
	tIntersectionOf, tUnionOf, tComplementOf, tClassMember                             symbol.ID
	tPropertyAssertion, tDomain, tRange                                                symbol.ID
	tFunctionalProperty, tInverseFunctionalProperty, tSymmetricProperty                symbol.ID
	tAsymmetricProperty, tTransitiveProperty, tIrreflexiveProperty, tInverseOf         symbol.ID
	tSubPropertyOf, tPropertyChain, tEquivalentProperty, tAllDisjointProperties        symbol.ID
	tDisjointProperty, tNegativePropertyAssertion, tHasKey                            symbol.ID
	tSomeValuesFrom, tAllValuesFrom, tHasValue, tMaxCardinality, tMaxQualifiedCard    symbol.ID
	tOneOfMember, tSameAs, tDifferentFrom, tAllDifferentMember                        symbol.ID
	tInconsistency, tViolation, tDivergence                                           symbol.ID

	aClass, aSub, aSup, aA, aB, aOperand, aIndividual, aProperty symbol.ID
	aSubject, aObject, aFiller, aValue, aCardinality, aGroupID   symbol.ID
	aViolationType, aDetail1, aDetail2, aRule                    symbol.ID
	aOperands, aChain, aKeyProps, aMember                        symbol.ID

	thing, nothing, sameAsProp symbol.ID
}

func newVocab(tbl *symbol.Table, typeKey symbol.ID) *vocab {
	v := &vocab{typeKey: typeKey}
	v.tClass = tbl.Intern(typeClass)
	v.tSubClassOf = tbl.Intern(typeSubClassOf)
	v.tEquivalentClass = tbl.Intern(typeEquivalentClass)
	v.tDisjointClasses = tbl.Intern(typeDisjointClasses)
	v.tIntersectionOf = tbl.Intern(typeIntersectionOf)
	v.tUnionOf = tbl.Intern(typeUnionOf)
	v.tComplementOf = tbl.Intern(typeComplementOf)
	v.tClassMember = tbl.Intern(typeClassMember)
	v.tPropertyAssertion = tbl.Intern(typePropertyAssertion)
	v.tDomain = tbl.Intern(typeDomain)
	v.tRange = tbl.Intern(typeRange)
	v.tFunctionalProperty = tbl.Intern(typeFunctionalProperty)
	v.tInverseFunctionalProperty = tbl.Intern(typeInverseFunctionalProperty)
	v.tSymmetricProperty = tbl.Intern(typeSymmetricProperty)
	v.tAsymmetricProperty = tbl.Intern(typeAsymmetricProperty)
	v.tTransitiveProperty = tbl.Intern(typeTransitiveProperty)
	v.tIrreflexiveProperty = tbl.Intern(typeIrreflexiveProperty)
	v.tInverseOf = tbl.Intern(typeInverseOf)
	v.tSubPropertyOf = tbl.Intern(typeSubPropertyOf)
	v.tPropertyChain = tbl.Intern(typePropertyChain)
	v.tEquivalentProperty = tbl.Intern(typeEquivalentProperty)
	v.tAllDisjointProperties = tbl.Intern(typeAllDisjointProperties)
	v.tDisjointProperty = tbl.Intern(typeDisjointProperty)
	v.tNegativePropertyAssertion = tbl.Intern(typeNegativePropertyAssertion)
	v.tHasKey = tbl.Intern(typeHasKey)
	v.tSomeValuesFrom = tbl.Intern(typeSomeValuesFrom)
	v.tAllValuesFrom = tbl.Intern(typeAllValuesFrom)
	v.tHasValue = tbl.Intern(typeHasValue)
	v.tMaxCardinality = tbl.Intern(typeMaxCardinality)
	v.tMaxQualifiedCard = tbl.Intern(typeMaxQualifiedCardinality)
	v.tOneOfMember = tbl.Intern(typeOneOfMember)
	v.tSameAs = tbl.Intern(typeSameAs)
	v.tDifferentFrom = tbl.Intern(typeDifferentFrom)
	v.tAllDifferentMember = tbl.Intern(typeAllDifferentMember)
	v.tInconsistency = tbl.Intern(typeInconsistency)
	v.tViolation = tbl.Intern(typeViolation)
	v.tDivergence = tbl.Intern(typeDivergence)

	v.aClass = tbl.Intern(attrClass)
	v.aSub = tbl.Intern(attrSub)
	v.aSup = tbl.Intern(attrSup)
	v.aA = tbl.Intern(attrA)
	v.aB = tbl.Intern(attrB)
	v.aOperand = tbl.Intern(attrOperand)
	v.aIndividual = tbl.Intern(attrIndividual)
	v.aProperty = tbl.Intern(attrProperty)
	v.aSubject = tbl.Intern(attrSubject)
	v.aObject = tbl.Intern(attrObject)
	v.aFiller = tbl.Intern(attrFiller)
	v.aValue = tbl.Intern(attrValue)
	v.aCardinality = tbl.Intern(attrCardinality)
	v.aGroupID = tbl.Intern(attrGroupID)
	v.aViolationType = tbl.Intern(attrViolationTyp)
	v.aDetail1 = tbl.Intern(attrDetail1)
	v.aDetail2 = tbl.Intern(attrDetail2)
	v.aRule = tbl.Intern(attrRule)
	v.aOperands = tbl.Intern(attrOperands)
	v.aChain = tbl.Intern(attrChain)
	v.aKeyProps = tbl.Intern(attrKeyProps)
	v.aMember = tbl.Intern(attrMember)

	v.thing = tbl.Intern(conceptThing)
	v.nothing = tbl.Intern(conceptNothing)
	v.sameAsProp = tbl.Intern(propSameAs)
	return v
}

func (v *vocab) cond(typ symbol.ID) *rete.Condition { return rete.NewCondition(typ) }

func (v *vocab) fact(typ symbol.ID, attrs map[symbol.ID]rete.Value) *rete.Fact {
	m := make(map[symbol.ID]rete.Value, len(attrs)+1)
	m[v.typeKey] = rete.Sym(typ)
	for k, val := range attrs {
		m[k] = val
	}
	return rete.NewFact(m)
}

func (v *vocab) violation(rule string, violationType string, details ...rete.Value) *rete.Fact {
	m := map[symbol.ID]rete.Value{
		v.aViolationType: rete.Str(violationType),
		v.aRule:           rete.Str(rule),
	}
	if len(details) > 0 {
		m[v.aDetail1] = details[0]
	}
	if len(details) > 1 {
		m[v.aDetail2] = details[1]
	}
	return v.fact(v.tViolation, m)
}
