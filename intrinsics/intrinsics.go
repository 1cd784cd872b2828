// Package intrinsics provides the CloudFormation intrinsic functions used by
// the topology declarations.
//
// The core types are re-exported from cloudformation-schema-go:
//
//	Ref{LogicalName: "Vpc"} → {"Ref": "Vpc"}
//	GetAtt{LogicalName: "ALB", Attribute: "DNSName"} → {"Fn::GetAtt": ["ALB", "DNSName"]}
//	Sub{String: "${AWS::StackName}/Vpc"} → {"Fn::Sub": "${AWS::StackName}/Vpc"}
package intrinsics

import (
	"github.com/lex00/cloudformation-schema-go/intrinsics"
)

type (
	// Ref represents a CloudFormation Ref intrinsic function.
	Ref = intrinsics.Ref

	// GetAtt represents a CloudFormation Fn::GetAtt intrinsic function.
	GetAtt = intrinsics.GetAtt

	// Sub represents a CloudFormation Fn::Sub intrinsic function.
	Sub = intrinsics.Sub

	// Tag represents a CloudFormation resource tag.
	Tag = intrinsics.Tag
)

// RefTo returns a Ref to the given logical ID.
func RefTo(logicalID string) Ref {
	return Ref{LogicalName: logicalID}
}

// NameTag returns the conventional Name tag, scoped to the stack name so
// that two stacks of the same topology stay distinguishable in the console.
func NameTag(path string) Tag {
	return Tag{Key: "Name", Value: Sub{String: "${AWS::StackName}/" + path}}
}
