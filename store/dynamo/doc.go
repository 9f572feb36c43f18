// Package dynamo stores training configurations in a DynamoDB table.
//
// Configurations are small and shared between service instances, so they can
// live in DynamoDB while images and vectors stay in the blob store. Ids come
// from an atomic counter item and records are written with conditional puts.
//
// Table schema:
//   - Partition key: pk (string)
//
// Create table with:
//
//	aws dynamodb create-table \
//	  --table-name kohonen-configs \
//	  --attribute-definitions AttributeName=pk,AttributeType=S \
//	  --key-schema AttributeName=pk,KeyType=HASH \
//	  --billing-mode PAY_PER_REQUEST
package dynamo
